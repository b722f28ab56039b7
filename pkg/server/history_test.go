package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/raterudder/froniuscollector/pkg/storage"
	"github.com/raterudder/froniuscollector/pkg/storage/storagemock"
	"github.com/raterudder/froniuscollector/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHistory(t *testing.T) {
	sink := okSink()
	srv := newTestServer(t, &fakeAPI{}, sink)
	handler := srv.setupHandler()

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(6 * time.Hour)
	pv := 1500.0
	points := []types.Point{
		types.NewPoint("powerflow", start.Add(time.Hour)).Float("p_pv", &pv),
	}

	t.Run("Parse Dates", func(t *testing.T) {
		tests := []struct {
			name   string
			start  string
			end    string
			errMsg string
		}{
			{
				name:   "Invalid Start String",
				start:  "invalid",
				end:    end.Format(time.RFC3339),
				errMsg: "invalid start time",
			},
			{
				name:   "Invalid End String",
				start:  start.Format(time.RFC3339),
				end:    "invalid",
				errMsg: "invalid end time",
			},
			{
				name:   "End Before Start",
				start:  end.Format(time.RFC3339),
				end:    start.Format(time.RFC3339),
				errMsg: "start time must be before end time",
			},
			{
				name:   "Range Too Long",
				start:  start.Format(time.RFC3339),
				end:    start.Add(8 * 24 * time.Hour).Format(time.RFC3339),
				errMsg: "time range cannot exceed",
			},
			{
				name:   "Only Start",
				start:  start.Format(time.RFC3339),
				errMsg: "start and end must be given together",
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				q := url.Values{}
				q.Set("measurement", "powerflow")
				if tt.start != "" {
					q.Set("start", tt.start)
				}
				if tt.end != "" {
					q.Set("end", tt.end)
				}
				req := httptest.NewRequest(http.MethodGet, "/api/history?"+q.Encode(), nil)
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Contains(t, w.Body.String(), tt.errMsg)
			})
		}
	})

	t.Run("Missing Measurement", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Success", func(t *testing.T) {
		sink.On("PointHistory", mock.Anything, "powerflow", start, end).Return(points, nil).Once()

		q := url.Values{}
		q.Set("measurement", "powerflow")
		q.Set("start", start.Format(time.RFC3339))
		q.Set("end", end.Format(time.RFC3339))
		req := httptest.NewRequest(http.MethodGet, "/api/history?"+q.Encode(), nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "private, max-age=3600", w.Header().Get("Cache-Control"))
		var resp LatestResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Points, 1)
		assert.Equal(t, 1500.0, resp.Points[0].Fields["p_pv"])
		assert.True(t, resp.Points[0].Time.Equal(start.Add(time.Hour)))
	})

	t.Run("Default Range", func(t *testing.T) {
		sink.On("PointHistory", mock.Anything, "meter", mock.Anything, mock.Anything).Return([]types.Point{}, nil).Run(func(args mock.Arguments) {
			s, e := args.Get(2).(time.Time), args.Get(3).(time.Time)
			assert.Equal(t, 24*time.Hour, e.Sub(s))
			assert.WithinDuration(t, time.Now(), e, time.Minute)
		}).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/history?measurement=meter", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "private, max-age=10", w.Header().Get("Cache-Control"))
	})

	t.Run("Recent End", func(t *testing.T) {
		recentEnd := time.Now().UTC().Truncate(time.Second)
		recentStart := recentEnd.Add(-time.Hour)
		sink.On("PointHistory", mock.Anything, "ohmpilot", recentStart, recentEnd).Return([]types.Point{}, nil).Once()

		q := url.Values{}
		q.Set("measurement", "ohmpilot")
		q.Set("start", recentStart.Format(time.RFC3339))
		q.Set("end", recentEnd.Format(time.RFC3339))
		req := httptest.NewRequest(http.MethodGet, "/api/history?"+q.Encode(), nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "private, max-age=10", w.Header().Get("Cache-Control"))
	})

	t.Run("Provider Without History", func(t *testing.T) {
		sink.On("PointHistory", mock.Anything, "inverter", mock.Anything, mock.Anything).Return(nil, storage.ErrNoHistory).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/history?measurement=inverter", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotImplemented, w.Code)
	})

	t.Run("Storage Error", func(t *testing.T) {
		sink.On("PointHistory", mock.Anything, "storage", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/history?measurement=storage", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"failed to get history"}`, w.Body.String())
	})

	sink.AssertExpectations(t)
}

func TestHistoryWriteOnlySink(t *testing.T) {
	srv := newTestServer(t, &fakeAPI{}, storage.LogSink{})
	handler := srv.setupHandler()

	for _, path := range []string{"/api/history?measurement=powerflow", "/api/history/latest?measurement=powerflow"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotImplemented, w.Code, path)
	}
}

func TestHistoryLatest(t *testing.T) {
	sink := &storagemock.MockSink{}
	srv := newTestServer(t, &fakeAPI{}, sink)
	handler := srv.setupHandler()

	pv := 900.0
	p := types.NewPoint("powerflow", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)).Float("p_pv", &pv)
	sink.On("LatestPoint", mock.Anything, "powerflow").Return(p, nil).Once()
	sink.On("LatestPoint", mock.Anything, "ohmpilot").Return(types.Point{}, storage.ErrNotFound).Once()
	sink.On("LatestPoint", mock.Anything, "meter").Return(types.Point{}, storage.ErrNoHistory).Once()

	t.Run("Found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/history/latest?measurement=powerflow", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var got types.Point
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, "powerflow", got.Measurement)
		assert.Equal(t, 900.0, got.Fields["p_pv"])
	})

	t.Run("Not Found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/history/latest?measurement=ohmpilot", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("No History", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/history/latest?measurement=meter", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotImplemented, w.Code)
	})

	t.Run("Missing Measurement", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/history/latest", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	sink.AssertExpectations(t)
}
