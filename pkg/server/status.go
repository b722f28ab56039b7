package server

import (
	"net/http"
	"time"

	"github.com/raterudder/froniuscollector/pkg/collector"
	"github.com/raterudder/froniuscollector/pkg/common"
	"github.com/raterudder/froniuscollector/pkg/types"
)

// StatusResponse is returned by GET /api/status. Result is nil until the
// first cycle finished.
type StatusResponse struct {
	Version string            `json:"version"`
	OK      bool              `json:"ok"`
	Result  *collector.Result `json:"result"`
}

// LatestResponse is returned by GET /api/latest.
type LatestResponse struct {
	Time   time.Time     `json:"time"`
	Points []types.Point `json:"points"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Version: common.Version()}
	if res, ok := s.collector.Latest(); ok {
		resp.OK = res.OK()
		resp.Result = &res
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	res, ok := s.collector.Latest()
	if !ok {
		writeJSONError(w, "no data collected yet", http.StatusNotFound)
		return
	}
	points := res.Points
	if points == nil {
		points = []types.Point{}
	}
	if m := r.URL.Query().Get("measurement"); m != "" {
		filtered := []types.Point{}
		for _, p := range points {
			if p.Measurement == m {
				filtered = append(filtered, p)
			}
		}
		points = filtered
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, LatestResponse{Time: res.Time, Points: points})
}
