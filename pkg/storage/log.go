package storage

import (
	"context"
	"log/slog"

	"github.com/raterudder/froniuscollector/pkg/log"
	"github.com/raterudder/froniuscollector/pkg/types"
)

// LogSink logs points instead of storing them. It is meant for dry runs
// against a real device.
type LogSink struct{}

// WritePoints logs every point at info level.
func (LogSink) WritePoints(ctx context.Context, points []types.Point) error {
	for _, p := range points {
		log.Ctx(ctx).InfoContext(ctx, "point",
			slog.String("measurement", p.Measurement),
			slog.Any("tags", p.Tags),
			slog.Any("fields", p.Fields),
			slog.Time("time", p.Time),
		)
	}
	return nil
}

func (LogSink) Close() error {
	return nil
}
