package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Group is one node of the group tree returned by the monitoring service. The
// energy endpoint returns a tree of groups whose leaves carry Blocks and the
// config endpoint returns a tree whose leaves carry Breakers.
type Group struct {
	ID   string
	Name string

	// SubGroups is nil when the node had no sub_groups field. A present but
	// empty (or null) field is a non-nil, empty slice and still marks the node
	// as internal.
	SubGroups []Group

	// Blocks holds the packed samples of a leaf energy group.
	Blocks *Blocks

	// Breakers are the breakers of a leaf config group.
	Breakers []Breaker

	// FromGrid and ToGrid are the energy totals in joules for the window.
	FromGrid float64
	ToGrid   float64

	// Extra holds every other field of the node, untouched.
	Extra map[string]json.RawMessage
}

// IsLeaf reports whether the node has no sub_groups field.
func (g *Group) IsLeaf() bool {
	return g.SubGroups == nil
}

type groupJSON struct {
	ID        string          `json:"_id,omitempty"`
	Name      string          `json:"name"`
	SubGroups json.RawMessage `json:"sub_groups,omitempty"`
	Blocks    *Blocks         `json:"blocks,omitempty"`
	Breakers  []Breaker       `json:"breakers,omitempty"`
	FromGrid  float64         `json:"from_grid,omitempty"`
	ToGrid    float64         `json:"to_grid,omitempty"`
}

var groupFields = []string{"_id", "name", "sub_groups", "blocks", "breakers", "from_grid", "to_grid"}

// UnmarshalJSON implements json.Unmarshaler.
func (g *Group) UnmarshalJSON(data []byte) error {
	var raw groupJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	extra, err := splitExtra(data, groupFields...)
	if err != nil {
		return err
	}

	*g = Group{
		ID:       raw.ID,
		Name:     raw.Name,
		Blocks:   raw.Blocks,
		Breakers: raw.Breakers,
		FromGrid: raw.FromGrid,
		ToGrid:   raw.ToGrid,
		Extra:    extra,
	}
	if len(raw.SubGroups) > 0 {
		g.SubGroups = []Group{}
		if !bytes.Equal(bytes.TrimSpace(raw.SubGroups), []byte("null")) {
			if err := json.Unmarshal(raw.SubGroups, &g.SubGroups); err != nil {
				return fmt.Errorf("group %q sub_groups: %w", raw.Name, err)
			}
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (g Group) MarshalJSON() ([]byte, error) {
	raw := groupJSON{
		ID:       g.ID,
		Name:     g.Name,
		Blocks:   g.Blocks,
		Breakers: g.Breakers,
		FromGrid: g.FromGrid,
		ToGrid:   g.ToGrid,
	}
	if g.SubGroups != nil {
		sub, err := json.Marshal(g.SubGroups)
		if err != nil {
			return nil, err
		}
		raw.SubGroups = sub
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return mergeExtra(b, g.Extra)
}

// Blocks is the binary sample payload of a leaf energy group. The service
// sends it as MongoDB extended JSON: {"$binary": {"base64": "...", "subType": "00"}}.
type Blocks struct {
	Base64  string `json:"base64"`
	SubType string `json:"subType,omitempty"`
}

// UnmarshalJSON accepts the extended JSON form, a flat {"base64": "..."}
// object and a bare base64 string.
func (b *Blocks) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = Blocks{Base64: s}
		return nil
	}

	var raw struct {
		Binary *struct {
			Base64  string `json:"base64"`
			SubType string `json:"subType"`
		} `json:"$binary"`
		Base64  string `json:"base64"`
		SubType string `json:"subType"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid blocks: %w", err)
	}
	if raw.Binary != nil {
		*b = Blocks{Base64: raw.Binary.Base64, SubType: raw.Binary.SubType}
		return nil
	}
	*b = Blocks{Base64: raw.Base64, SubType: raw.SubType}
	return nil
}
