package topology

import (
	"fmt"
	"strings"
)

// SpaceIndexing selects which space numbers a panel reporting N spaces has.
type SpaceIndexing int

const (
	// SpaceIndexingExclusive numbers spaces 1..N-1. This matches what the
	// monitoring service's own tooling has always done.
	SpaceIndexingExclusive SpaceIndexing = iota
	// SpaceIndexingInclusive numbers spaces 1..N.
	SpaceIndexingInclusive
)

// ParseSpaceIndexing parses "exclusive" or "inclusive".
func ParseSpaceIndexing(s string) (SpaceIndexing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exclusive", "":
		return SpaceIndexingExclusive, nil
	case "inclusive":
		return SpaceIndexingInclusive, nil
	default:
		return 0, fmt.Errorf("unknown space indexing: %q", s)
	}
}

func (s SpaceIndexing) String() string {
	switch s {
	case SpaceIndexingExclusive:
		return "exclusive"
	case SpaceIndexingInclusive:
		return "inclusive"
	default:
		return fmt.Sprintf("SpaceIndexing(%d)", int(s))
	}
}

// Range returns the first and last valid space of a panel with the given
// space count. last < first means the panel has no spaces.
func (s SpaceIndexing) Range(spaces int) (first, last int) {
	if s == SpaceIndexingInclusive {
		return 1, spaces
	}
	return 1, spaces - 1
}
