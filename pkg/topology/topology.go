package topology

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"slices"

	"github.com/breakerview/breakerview/pkg/energy"
	"github.com/breakerview/breakerview/pkg/log"
	"github.com/breakerview/breakerview/pkg/types"
)

// Topology is the set of panels of one config document, keyed by index.
type Topology struct {
	indexing SpaceIndexing
	panels   map[int]*Panel
}

// New creates a topology with an empty panel per descriptor.
func New(panels []types.PanelDescriptor, indexing SpaceIndexing) (*Topology, error) {
	t := &Topology{
		indexing: indexing,
		panels:   make(map[int]*Panel, len(panels)),
	}
	for _, d := range panels {
		if _, ok := t.panels[d.Index]; ok {
			return nil, &DuplicatePanelError{Index: d.Index}
		}
		t.panels[d.Index] = NewPanel(d, indexing)
	}
	return t, nil
}

// Build creates every panel of cfg and then attaches the breakers of every
// leaf breaker group to the panel they name.
func Build(ctx context.Context, cfg types.Config, indexing SpaceIndexing) (*Topology, error) {
	t, err := New(cfg.Panels, indexing)
	if err != nil {
		return nil, err
	}

	var count int
	for g := range energy.Leaves(cfg.BreakerGroups) {
		for _, b := range g.Breakers {
			if err := t.AddBreaker(b); err != nil {
				log.Ctx(ctx).WarnContext(
					ctx,
					"failed to attach breaker",
					slog.String("group", g.Name),
					slog.String("breaker", b.Name),
					slog.Int("panel", b.Panel),
					slog.Int("space", b.Space),
					slog.Any("error", err),
				)
				return nil, err
			}
			count++
		}
	}

	for _, idx := range t.Indexes() {
		for _, c := range t.panels[idx].SpaceMap().Collisions() {
			log.Ctx(ctx).WarnContext(
				ctx,
				"duplicate breaker space",
				slog.Int("panel", idx),
				slog.Int("space", c.Space),
				slog.String("previous", c.Previous.Name),
				slog.String("current", c.Current.Name),
			)
		}
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"built topology",
		slog.Int("panels", len(t.panels)),
		slog.Int("breakers", count),
		slog.String("indexing", indexing.String()),
	)
	return t, nil
}

// AddBreaker attaches b to the panel it names.
func (t *Topology) AddBreaker(b types.Breaker) error {
	p, ok := t.panels[b.Panel]
	if !ok {
		return &UnknownPanelError{Breaker: b}
	}
	return p.AddBreaker(b)
}

// Panel returns the panel with the given index.
func (t *Topology) Panel(index int) (*Panel, bool) {
	p, ok := t.panels[index]
	return p, ok
}

// Panels returns the panels keyed by index.
func (t *Topology) Panels() map[int]*Panel {
	return maps.Clone(t.panels)
}

// Indexes returns the panel indexes in ascending order.
func (t *Topology) Indexes() []int {
	return slices.Sorted(maps.Keys(t.panels))
}

// Collisions returns the space collisions of every panel that has any.
func (t *Topology) Collisions() map[int][]Collision {
	out := make(map[int][]Collision)
	for idx, p := range t.panels {
		if c := p.SpaceMap().Collisions(); len(c) > 0 {
			out[idx] = c
		}
	}
	return out
}

// MarshalJSON renders the panels in index order.
func (t *Topology) MarshalJSON() ([]byte, error) {
	panels := make([]*Panel, 0, len(t.panels))
	for _, idx := range t.Indexes() {
		panels = append(panels, t.panels[idx])
	}
	return json.Marshal(struct {
		Panels []*Panel `json:"panels"`
	}{Panels: panels})
}
