package monitormock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/breakerview/breakerview/pkg/monitor"
	"github.com/breakerview/breakerview/pkg/types"
)

type MockService struct {
	mock.Mock
}

var _ monitor.Service = (*MockService)(nil)

func (m *MockService) Config(ctx context.Context) (types.Config, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.Config), args.Error(1)
}

func (m *MockService) DefaultGroup(ctx context.Context) (types.Group, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.Group), args.Error(1)
}

func (m *MockService) Energy(ctx context.Context, groupID string, view types.View, t time.Time) (types.Group, error) {
	args := m.Called(ctx, groupID, view, t)
	return args.Get(0).(types.Group), args.Error(1)
}

// PeriodStart computes the period in t's own location; it is not mocked.
func (m *MockService) PeriodStart(view types.View, t time.Time) time.Time {
	return monitor.PeriodStart(view, t)
}
