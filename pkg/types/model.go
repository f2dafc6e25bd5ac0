package types

import (
	"fmt"
	"strings"
	"time"
)

const (
	CurrentSeriesVersion = 1
)

// View is the reporting window of an energy query.
type View string

const (
	ViewDay   View = "DAY"
	ViewMonth View = "MONTH"
	ViewYear  View = "YEAR"
)

// ParseView parses a view name case-insensitively.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToUpper(strings.TrimSpace(s))); v {
	case ViewDay, ViewMonth, ViewYear:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view: %q", s)
	}
}

// LeafSamples is the decoded series of one leaf energy group.
type LeafSamples struct {
	Name string    `json:"name"`
	KWH  []float64 `json:"kwh"`
	// Error is set instead of KWH when the leaf could not be decoded.
	Error string `json:"error,omitempty"`
}

// EnergySeries is every decoded leaf of one energy query, in source order.
type EnergySeries struct {
	GroupID   string        `json:"groupID"`
	GroupName string        `json:"groupName"`
	View      View          `json:"view"`
	Start     time.Time     `json:"start"`
	Leaves    []LeafSamples `json:"leaves"`
	Version   int           `json:"version"`
}

// Summary is the from-grid energy of the default group for the current day,
// month and year.
type Summary struct {
	GroupID   string    `json:"groupID"`
	GroupName string    `json:"groupName"`
	Timestamp time.Time `json:"timestamp"`
	DayKWH    float64   `json:"dayKWH"`
	MonthKWH  float64   `json:"monthKWH"`
	YearKWH   float64   `json:"yearKWH"`
}
