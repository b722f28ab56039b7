package storage

import (
	"context"
	"errors"
	"time"

	"github.com/raterudder/froniuscollector/pkg/types"
)

var (
	// ErrNoHistory is returned by PointHistory when the provider only writes.
	ErrNoHistory = errors.New("storage provider does not support history")
	ErrNotFound  = errors.New("not found")
)

// Sink persists points produced by a poll cycle. Implementations own their
// batching, retries and authentication.
type Sink interface {
	WritePoints(ctx context.Context, points []types.Point) error

	// Lifecycle
	Close() error
}

// HistoryReader is implemented by providers that can read back what they
// stored.
type HistoryReader interface {
	// PointHistory returns the points of measurement with start <= time < end,
	// oldest first.
	PointHistory(ctx context.Context, measurement string, start, end time.Time) ([]types.Point, error)

	// LatestPoint returns the newest stored point of measurement or
	// ErrNotFound.
	LatestPoint(ctx context.Context, measurement string) (types.Point, error)
}

// provider wraps the configured Sink so the value returned by Configured can
// be created before flags are parsed.
type provider struct {
	Sink
}

// PointHistory delegates to the wrapped sink or returns ErrNoHistory.
func (p *provider) PointHistory(ctx context.Context, measurement string, start, end time.Time) ([]types.Point, error) {
	if h, ok := p.Sink.(HistoryReader); ok {
		return h.PointHistory(ctx, measurement, start, end)
	}
	return nil, ErrNoHistory
}

// LatestPoint delegates to the wrapped sink or returns ErrNoHistory.
func (p *provider) LatestPoint(ctx context.Context, measurement string) (types.Point, error) {
	if h, ok := p.Sink.(HistoryReader); ok {
		return h.LatestPoint(ctx, measurement)
	}
	return types.Point{}, ErrNoHistory
}

func validPoints(points []types.Point) ([]types.Point, []error) {
	valid := make([]types.Point, 0, len(points))
	var errs []error
	for _, p := range points {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		valid = append(valid, p)
	}
	return valid, errs
}
