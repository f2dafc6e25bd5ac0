package topology

import (
	"fmt"

	"github.com/breakerview/breakerview/pkg/types"
)

// UnknownPanelError is returned when a breaker names a panel index that no
// panel descriptor declared.
type UnknownPanelError struct {
	Breaker types.Breaker
}

func (e *UnknownPanelError) Error() string {
	return fmt.Sprintf("breaker %q references unknown panel %d", e.Breaker.Name, e.Breaker.Panel)
}

// PanelMismatchError is returned when a breaker is added directly to a panel
// other than the one it names.
type PanelMismatchError struct {
	Breaker types.Breaker
	Panel   int
}

func (e *PanelMismatchError) Error() string {
	return fmt.Sprintf("breaker %q belongs to panel %d, not %d", e.Breaker.Name, e.Breaker.Panel, e.Panel)
}

// SpaceOutOfRangeError is returned when a breaker's space is not a space of
// its panel under the panel's indexing.
type SpaceOutOfRangeError struct {
	Breaker types.Breaker
	First   int
	Last    int
}

func (e *SpaceOutOfRangeError) Error() string {
	if e.Last < e.First {
		return fmt.Sprintf("breaker %q space %d: panel %d has no spaces", e.Breaker.Name, e.Breaker.Space, e.Breaker.Panel)
	}
	return fmt.Sprintf(
		"breaker %q space %d is outside panel %d spaces %d..%d",
		e.Breaker.Name, e.Breaker.Space, e.Breaker.Panel, e.First, e.Last,
	)
}

// DuplicatePanelError is returned when two panel descriptors share an index.
type DuplicatePanelError struct {
	Index int
}

func (e *DuplicatePanelError) Error() string {
	return fmt.Sprintf("duplicate panel index %d", e.Index)
}
