package topology

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/breakerview/breakerview/pkg/types"
)

// Panel is an electrical panel and the breakers attached to it.
type Panel struct {
	AccountID int
	Name      string
	Index     int
	Spaces    int
	Meter     int
	Extra     map[string]json.RawMessage

	indexing SpaceIndexing

	mu       sync.Mutex
	breakers []types.Breaker
	// spaceMap is built on first read and dropped by AddBreaker
	spaceMap *SpaceMap
}

// NewPanel creates an empty panel from its descriptor.
func NewPanel(d types.PanelDescriptor, indexing SpaceIndexing) *Panel {
	return &Panel{
		AccountID: d.AccountID,
		Name:      d.Name,
		Index:     d.Index,
		Spaces:    d.Spaces,
		Meter:     d.Meter,
		Extra:     d.Extra,
		indexing:  indexing,
	}
}

// Indexing returns the space numbering the panel was built with.
func (p *Panel) Indexing() SpaceIndexing {
	return p.indexing
}

// SpaceRange returns the first and last valid space of the panel.
func (p *Panel) SpaceRange() (first, last int) {
	return p.indexing.Range(p.Spaces)
}

// AddBreaker appends b to the panel's breakers. The breaker must belong to
// this panel and occupy one of its spaces. A breaker whose space is already
// taken is accepted; the collision shows up in SpaceMap.
func (p *Panel) AddBreaker(b types.Breaker) error {
	if b.Panel != p.Index {
		return &PanelMismatchError{Breaker: b, Panel: p.Index}
	}
	first, last := p.SpaceRange()
	if b.Space < first || b.Space > last {
		return &SpaceOutOfRangeError{Breaker: b, First: first, Last: last}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.breakers = append(p.breakers, b)
	p.spaceMap = nil
	return nil
}

// Breakers returns a copy of the panel's breakers in the order they were added.
func (p *Panel) Breakers() []types.Breaker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.breakers)
}

// SpaceMap returns the space to breaker mapping of the panel, building it on
// the first call after the breakers last changed.
func (p *Panel) SpaceMap() *SpaceMap {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spaceMap == nil {
		first, last := p.SpaceRange()
		p.spaceMap = newSpaceMap(first, last, p.breakers)
	}
	return p.spaceMap
}

// MarshalJSON renders the panel with its breakers and occupied spaces.
func (p *Panel) MarshalJSON() ([]byte, error) {
	sm := p.SpaceMap()
	spaces := make(map[int]*types.Breaker, sm.Len())
	for _, s := range sm.Spaces() {
		if b, ok := sm.Breaker(s); ok {
			spaces[s] = &b
		} else {
			spaces[s] = nil
		}
	}
	return json.Marshal(struct {
		AccountID int                    `json:"account_id"`
		Name      string                 `json:"name"`
		Index     int                    `json:"index"`
		Spaces    int                    `json:"spaces"`
		Meter     int                    `json:"meter"`
		Indexing  string                 `json:"indexing"`
		Breakers  []types.Breaker        `json:"breakers"`
		SpaceMap  map[int]*types.Breaker `json:"space_map"`
	}{
		AccountID: p.AccountID,
		Name:      p.Name,
		Index:     p.Index,
		Spaces:    p.Spaces,
		Meter:     p.Meter,
		Indexing:  p.indexing.String(),
		Breakers:  p.Breakers(),
		SpaceMap:  spaces,
	})
}

// Collision records a breaker that displaced another from the same space.
type Collision struct {
	Space    int
	Previous types.Breaker
	Current  types.Breaker
}

// SpaceMap maps every valid space of a panel to the breaker occupying it.
// When breakers collide on a space the one added last wins and the collision
// is recorded.
type SpaceMap struct {
	first, last int
	occupants   map[int]types.Breaker
	collisions  []Collision
}

func newSpaceMap(first, last int, breakers []types.Breaker) *SpaceMap {
	m := &SpaceMap{
		first:     first,
		last:      last,
		occupants: make(map[int]types.Breaker, len(breakers)),
	}
	for _, b := range breakers {
		if !m.Valid(b.Space) {
			continue
		}
		if prev, ok := m.occupants[b.Space]; ok {
			m.collisions = append(m.collisions, Collision{Space: b.Space, Previous: prev, Current: b})
		}
		m.occupants[b.Space] = b
	}
	return m
}

// Len returns the number of valid spaces.
func (m *SpaceMap) Len() int {
	return max(m.last-m.first+1, 0)
}

// Spaces returns every valid space in ascending order.
func (m *SpaceMap) Spaces() []int {
	out := make([]int, 0, m.Len())
	for s := m.first; s <= m.last; s++ {
		out = append(out, s)
	}
	return out
}

// Valid reports whether space is a space of the panel.
func (m *SpaceMap) Valid(space int) bool {
	return space >= m.first && space <= m.last
}

// Breaker returns the breaker occupying space. ok is false when the space is
// unoccupied or not a space of the panel.
func (m *SpaceMap) Breaker(space int) (b types.Breaker, ok bool) {
	b, ok = m.occupants[space]
	return b, ok
}

// Occupied returns the number of occupied spaces.
func (m *SpaceMap) Occupied() int {
	return len(m.occupants)
}

// Collisions returns the breakers that were displaced, in insertion order.
func (m *SpaceMap) Collisions() []Collision {
	return slices.Clone(m.collisions)
}
