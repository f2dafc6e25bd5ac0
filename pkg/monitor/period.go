package monitor

import (
	"fmt"
	"time"

	"github.com/breakerview/breakerview/pkg/types"
)

// PeriodStart returns midnight of the first day of the period of view that
// contains t, in t's location.
func PeriodStart(view types.View, t time.Time) time.Time {
	switch view {
	case types.ViewMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case types.ViewYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// PeriodEnd returns the start of the period after the one starting at start.
func PeriodEnd(view types.View, start time.Time) time.Time {
	switch view {
	case types.ViewMonth:
		return start.AddDate(0, 1, 0)
	case types.ViewYear:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

func validView(view types.View) error {
	switch view {
	case types.ViewDay, types.ViewMonth, types.ViewYear:
		return nil
	default:
		return fmt.Errorf("unknown view: %q", view)
	}
}
