package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/raterudder/froniuscollector/pkg/log"
	"github.com/raterudder/froniuscollector/pkg/storage"
)

const (
	maxHistoryRange = 7 * 24 * time.Hour

	// ranges ending this close to now are still being written
	openRangeSlack = time.Minute
)

func (s *Server) historyReader() (storage.HistoryReader, bool) {
	hr, ok := s.storage.(storage.HistoryReader)
	return hr, ok
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	measurement := r.URL.Query().Get("measurement")
	if measurement == "" {
		writeJSONError(w, "missing measurement", http.StatusBadRequest)
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSONError(w, "invalid time range: "+err.Error(), http.StatusBadRequest)
		return
	}

	hr, ok := s.historyReader()
	if !ok {
		writeJSONError(w, storage.ErrNoHistory.Error(), http.StatusNotImplemented)
		return
	}
	points, err := hr.PointHistory(ctx, measurement, start, end)
	if err != nil {
		if errors.Is(err, storage.ErrNoHistory) {
			writeJSONError(w, err.Error(), http.StatusNotImplemented)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get point history", slog.String("measurement", measurement), slog.Any("error", err))
		writeJSONError(w, "failed to get history", http.StatusInternalServerError)
		return
	}

	// closed ranges never change
	if end.Before(time.Now().Add(-openRangeSlack)) {
		w.Header().Set("Cache-Control", "private, max-age=3600")
	} else {
		w.Header().Set("Cache-Control", "private, max-age=10")
	}
	writeJSON(w, http.StatusOK, LatestResponse{Time: end, Points: points})
}

func (s *Server) handleHistoryLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	measurement := r.URL.Query().Get("measurement")
	if measurement == "" {
		writeJSONError(w, "missing measurement", http.StatusBadRequest)
		return
	}

	hr, ok := s.historyReader()
	if !ok {
		writeJSONError(w, storage.ErrNoHistory.Error(), http.StatusNotImplemented)
		return
	}
	p, err := hr.LatestPoint(ctx, measurement)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSONError(w, "no points for measurement", http.StatusNotFound)
		return
	case errors.Is(err, storage.ErrNoHistory):
		writeJSONError(w, err.Error(), http.StatusNotImplemented)
		return
	case err != nil:
		log.Ctx(ctx).ErrorContext(ctx, "failed to get latest point", slog.String("measurement", measurement), slog.Any("error", err))
		writeJSONError(w, "failed to get latest point", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" && endStr == "" {
		// Default to last 24 hours if not specified
		end := time.Now()
		start := end.Add(-24 * time.Hour)
		return start, end, nil
	}
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start and end must be given together")
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}

	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start time must be before end time")
	}

	if end.Sub(start) > maxHistoryRange {
		return time.Time{}, time.Time{}, fmt.Errorf("time range cannot exceed %s", maxHistoryRange)
	}

	return start, end, nil
}
