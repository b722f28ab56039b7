package storagemock

import (
	"context"
	"time"

	"github.com/raterudder/froniuscollector/pkg/storage"
	"github.com/raterudder/froniuscollector/pkg/types"
	"github.com/stretchr/testify/mock"
)

// MockSink is a testify mock of a storage provider that can also serve
// history.
type MockSink struct {
	mock.Mock
}

var (
	_ storage.Sink          = (*MockSink)(nil)
	_ storage.HistoryReader = (*MockSink)(nil)
)

func (m *MockSink) WritePoints(ctx context.Context, points []types.Point) error {
	args := m.Called(ctx, points)
	return args.Error(0)
}

func (m *MockSink) PointHistory(ctx context.Context, measurement string, start, end time.Time) ([]types.Point, error) {
	args := m.Called(ctx, measurement, start, end)
	// return empty if not specified, or checks args
	if len(args) > 0 {
		if args.Get(0) == nil {
			return nil, args.Error(1)
		}
		return args.Get(0).([]types.Point), args.Error(1)
	}
	return nil, nil
}

func (m *MockSink) LatestPoint(ctx context.Context, measurement string) (types.Point, error) {
	args := m.Called(ctx, measurement)
	if len(args) > 0 {
		return args.Get(0).(types.Point), args.Error(1)
	}
	return types.Point{}, nil
}

func (m *MockSink) Close() error {
	args := m.Called()
	return args.Error(0)
}
