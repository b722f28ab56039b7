package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raterudder/froniuscollector/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historyCSV = `#datatype,string,long,dateTime:RFC3339,dateTime:RFC3339,dateTime:RFC3339,double,string,string,string
#group,false,false,true,true,false,false,true,true,true
#default,_result,,,,,,,,
,result,table,_start,_stop,_time,_value,_field,_measurement,device_id
,,0,2024-05-01T00:00:00Z,2024-05-02T00:00:00Z,2024-05-01T12:00:00Z,-120.5,p_sum,meter,0
,,0,2024-05-01T00:00:00Z,2024-05-02T00:00:00Z,2024-05-01T12:00:10Z,-100,p_sum,meter,0
,,1,2024-05-01T00:00:00Z,2024-05-02T00:00:00Z,2024-05-01T12:00:00Z,230.1,u_phase_1,meter,0

`

type influxFixture struct {
	server *httptest.Server

	mu     sync.Mutex
	writes []string
	query  string
}

func newInfluxFixture(t *testing.T) *influxFixture {
	f := &influxFixture{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.URL.Path {
		case "/api/v2/write":
			assert.Equal(t, "home", r.URL.Query().Get("org"))
			assert.Equal(t, "fronius", r.URL.Query().Get("bucket"))
			f.writes = append(f.writes, string(body))
			w.WriteHeader(http.StatusNoContent)
		case "/api/v2/query":
			f.query = string(body)
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			_, _ = w.Write([]byte(historyCSV))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func newTestInflux(t *testing.T, f *influxFixture) *Influx {
	i := &Influx{
		url:     f.server.URL,
		token:   "secret",
		org:     "home",
		bucket:  "fronius",
		timeout: 5 * time.Second,
	}
	require.NoError(t, i.Validate())
	require.NoError(t, i.Init(context.Background()))
	t.Cleanup(func() { _ = i.Close() })
	return i
}

func TestInfluxValidate(t *testing.T) {
	assert.Error(t, (&Influx{}).Validate())
	assert.Error(t, (&Influx{url: "http://x"}).Validate())
	assert.Error(t, (&Influx{url: "http://x", org: "o"}).Validate())
	assert.NoError(t, (&Influx{url: "http://x", org: "o", bucket: "b"}).Validate())
}

func TestInfluxWritePoints(t *testing.T) {
	f := newInfluxFixture(t)
	i := newTestInflux(t, f)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	v := 1500.0
	points := []types.Point{
		types.NewPoint("inverter", ts).Tag("device_id", "1").Float("pac", &v),
		types.NewPoint("powerflow", ts).Field("mode", "meter").Field("p_pv", 2000.0),
		types.NewPoint("empty", ts),
	}
	require.NoError(t, i.WritePoints(context.Background(), points))

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.writes, 1)
	lines := strings.Split(strings.TrimSpace(f.writes[0]), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "inverter,device_id=1 pac=1500 1714564800000000000", lines[0])
	assert.Contains(t, lines[1], `mode="meter"`)
	assert.Contains(t, lines[1], "p_pv=2000")
}

func TestInfluxWriteNothing(t *testing.T) {
	f := newInfluxFixture(t)
	i := newTestInflux(t, f)

	require.NoError(t, i.WritePoints(context.Background(), nil))
	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Empty(t, f.writes)
}

func TestInfluxPointHistory(t *testing.T) {
	f := newInfluxFixture(t)
	i := newTestInflux(t, f)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	points, err := i.PointHistory(context.Background(), "meter", start, start.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "meter", points[0].Measurement)
	assert.Equal(t, map[string]string{"device_id": "0"}, points[0].Tags)
	assert.Equal(t, -120.5, points[0].Fields["p_sum"])
	assert.Equal(t, 230.1, points[0].Fields["u_phase_1"])
	assert.True(t, points[0].Time.Equal(start.Add(12*time.Hour)))
	assert.Equal(t, -100.0, points[1].Fields["p_sum"])

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Contains(t, f.query, `"measurement":"meter"`)
	assert.Contains(t, f.query, `"bucket":"fronius"`)
}

func TestInfluxLatestPoint(t *testing.T) {
	f := newInfluxFixture(t)
	i := newTestInflux(t, f)

	p, err := i.LatestPoint(context.Background(), "meter")
	require.NoError(t, err)
	assert.Equal(t, -100.0, p.Fields["p_sum"])
	assert.True(t, p.Time.Equal(time.Date(2024, 5, 1, 12, 0, 10, 0, time.UTC)))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Contains(t, f.query, "last()")
}
