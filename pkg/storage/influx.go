package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/levenlabs/go-lflag"

	"github.com/raterudder/froniuscollector/pkg/common"
	"github.com/raterudder/froniuscollector/pkg/log"
	"github.com/raterudder/froniuscollector/pkg/types"
)

const (
	historyQuery = `from(bucket: params.bucket)
	|> range(start: time(v: params.start), stop: time(v: params.stop))
	|> filter(fn: (r) => r._measurement == params.measurement)`

	latestQuery = `from(bucket: params.bucket)
	|> range(start: time(v: params.start), stop: time(v: params.stop))
	|> filter(fn: (r) => r._measurement == params.measurement)
	|> last()`

	// latestLookback bounds how far back LatestPoint searches.
	latestLookback = 7 * 24 * time.Hour
)

// Influx writes points to an InfluxDB 2.x bucket.
type Influx struct {
	url     string
	token   string
	org     string
	bucket  string
	timeout time.Duration

	client influxdb2.Client
	writer api.WriteAPIBlocking
	query  api.QueryAPI
}

func configuredInflux() *Influx {
	url := lflag.String("influx-url", common.EnvDefault("INFLUX_URL", "http://localhost:8086"), "InfluxDB server URL")
	token := lflag.String("influx-token", common.EnvDefault("INFLUX_TOKEN", ""), "InfluxDB API token")
	org := lflag.String("influx-org", common.EnvDefault("INFLUX_ORG", ""), "InfluxDB organization")
	bucket := lflag.String("influx-bucket", common.EnvDefault("INFLUX_BUCKET", "fronius"), "InfluxDB bucket")
	timeout := lflag.Duration("influx-timeout", 10*time.Second, "Timeout for InfluxDB requests")

	i := &Influx{}

	lflag.Do(func() {
		i.url = *url
		i.token = *token
		i.org = *org
		i.bucket = *bucket
		i.timeout = *timeout
	})

	return i
}

// Validate checks if the provider is properly configured.
func (i *Influx) Validate() error {
	if i.url == "" {
		return errors.New("influx-url is required")
	}
	if i.org == "" {
		return errors.New("influx-org is required")
	}
	if i.bucket == "" {
		return errors.New("influx-bucket is required")
	}
	return nil
}

// Init creates the client. No request is made until the first write.
func (i *Influx) Init(ctx context.Context) error {
	timeout := i.timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := influxdb2.DefaultOptions().
		SetHTTPRequestTimeout(uint(timeout.Seconds())).
		SetApplicationName(common.UserAgent())
	i.client = influxdb2.NewClientWithOptions(i.url, i.token, opts)
	i.writer = i.client.WriteAPIBlocking(i.org, i.bucket)
	i.query = i.client.QueryAPI(i.org)
	return nil
}

// Close releases the client.
func (i *Influx) Close() error {
	if i.client != nil {
		i.client.Close()
	}
	return nil
}

// WritePoints writes all valid points in one request. Invalid points are
// logged and skipped.
func (i *Influx) WritePoints(ctx context.Context, points []types.Point) error {
	valid, errs := validPoints(points)
	for _, err := range errs {
		log.Ctx(ctx).WarnContext(ctx, "skipping invalid point", slog.Any("error", err))
	}
	if len(valid) == 0 {
		return nil
	}

	wps := make([]*write.Point, 0, len(valid))
	for _, p := range valid {
		wps = append(wps, influxdb2.NewPoint(p.Measurement, p.Tags, p.Fields, p.Time))
	}
	if err := i.writer.WritePoint(ctx, wps...); err != nil {
		return fmt.Errorf("failed to write %d points to influxdb: %w", len(wps), err)
	}
	return nil
}

type historyParams struct {
	Bucket      string    `json:"bucket"`
	Measurement string    `json:"measurement"`
	Start       time.Time `json:"start"`
	Stop        time.Time `json:"stop"`
}

// PointHistory reads points back with a Flux query.
func (i *Influx) PointHistory(ctx context.Context, measurement string, start, end time.Time) ([]types.Point, error) {
	return i.queryPoints(ctx, historyQuery, historyParams{
		Bucket:      i.bucket,
		Measurement: measurement,
		Start:       start,
		Stop:        end,
	})
}

// LatestPoint returns the newest point of measurement written within the
// last week.
func (i *Influx) LatestPoint(ctx context.Context, measurement string) (types.Point, error) {
	now := time.Now()
	points, err := i.queryPoints(ctx, latestQuery, historyParams{
		Bucket:      i.bucket,
		Measurement: measurement,
		Start:       now.Add(-latestLookback),
		Stop:        now.Add(time.Minute),
	})
	if err != nil {
		return types.Point{}, err
	}
	if len(points) == 0 {
		return types.Point{}, fmt.Errorf("%w: no %s points", ErrNotFound, measurement)
	}
	return points[len(points)-1], nil
}

// queryPoints runs a Flux query. Influx returns one row per field so rows
// sharing a timestamp and tag set are merged into one point.
func (i *Influx) queryPoints(ctx context.Context, flux string, params historyParams) ([]types.Point, error) {
	result, err := i.query.QueryWithParams(ctx, flux, params)
	if err != nil {
		return nil, fmt.Errorf("failed to query influxdb: %w", err)
	}
	defer result.Close()

	byKey := make(map[string]*types.Point)
	var keys []string
	for result.Next() {
		rec := result.Record()
		p := types.NewPoint(rec.Measurement(), rec.Time())
		for k, v := range rec.Values() {
			if strings.HasPrefix(k, "_") || k == "result" || k == "table" {
				continue
			}
			if s, ok := v.(string); ok {
				p = p.Tag(k, s)
			}
		}
		key := p.Time.UTC().Format(time.RFC3339Nano) + "|" + p.Series()
		existing, ok := byKey[key]
		if !ok {
			existing = &p
			byKey[key] = existing
			keys = append(keys, key)
		}
		*existing = existing.Field(rec.Field(), rec.Value())
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read influxdb result: %w", err)
	}

	points := make([]types.Point, 0, len(keys))
	for _, k := range keys {
		points = append(points, *byKey[k])
	}
	slices.SortStableFunc(points, func(a, b types.Point) int {
		return a.Time.Compare(b.Time)
	})
	return points, nil
}
