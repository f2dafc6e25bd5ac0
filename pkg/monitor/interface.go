package monitor

import (
	"context"
	"time"

	"github.com/breakerview/breakerview/pkg/types"
)

// Service defines the interface for reading from an energy monitoring service.
type Service interface {
	// Config returns the panel and breaker configuration of the account.
	Config(ctx context.Context) (types.Config, error)

	// DefaultGroup returns the first breaker group of the configuration.
	DefaultGroup(ctx context.Context) (types.Group, error)

	// Energy returns the energy group tree of groupID for the period of view
	// that contains t.
	Energy(ctx context.Context, groupID string, view types.View, t time.Time) (types.Group, error)

	// PeriodStart returns the start of the period of view that contains t, in
	// the service's location.
	PeriodStart(view types.View, t time.Time) time.Time
}
