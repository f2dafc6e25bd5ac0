package storagemock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/breakerview/breakerview/pkg/storage"
	"github.com/breakerview/breakerview/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) UpsertSeries(ctx context.Context, series types.EnergySeries) error {
	args := m.Called(ctx, series)
	return args.Error(0)
}

func (m *MockDatabase) GetSeries(ctx context.Context, groupID string, view types.View, start time.Time) (types.EnergySeries, error) {
	args := m.Called(ctx, groupID, view, start)
	return args.Get(0).(types.EnergySeries), args.Error(1)
}

func (m *MockDatabase) ListSeries(ctx context.Context, groupID string, view types.View, start, end time.Time) ([]types.EnergySeries, error) {
	args := m.Called(ctx, groupID, view, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.EnergySeries), args.Error(1)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
