package types

import (
	"encoding/json"
	"fmt"
)

// Config is the document returned by the config endpoint.
type Config struct {
	Panels        []PanelDescriptor          `json:"panels"`
	BreakerGroups []Group                    `json:"breaker_groups"`
	Extra         map[string]json.RawMessage `json:"-"`
}

type configAlias Config

// UnmarshalJSON implements json.Unmarshaler.
func (c *Config) UnmarshalJSON(data []byte) error {
	var a configAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, "panels", "breaker_groups")
	if err != nil {
		return err
	}
	a.Extra = extra
	*c = Config(a)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Config) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(configAlias(c))
	if err != nil {
		return nil, err
	}
	return mergeExtra(b, c.Extra)
}

// PanelDescriptor describes one electrical panel.
type PanelDescriptor struct {
	AccountID int    `json:"account_id"`
	Name      string `json:"name"`
	Index     int    `json:"index"`
	Spaces    int    `json:"spaces"`
	Meter     int    `json:"meter"`

	Extra map[string]json.RawMessage `json:"-"`
}

type panelAlias PanelDescriptor

var panelFields = []string{"account_id", "name", "index", "spaces", "meter"}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PanelDescriptor) UnmarshalJSON(data []byte) error {
	var a panelAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("invalid panel: %w", err)
	}
	extra, err := splitExtra(data, panelFields...)
	if err != nil {
		return err
	}
	a.Extra = extra
	*p = PanelDescriptor(a)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p PanelDescriptor) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(panelAlias(p))
	if err != nil {
		return nil, err
	}
	return mergeExtra(b, p.Extra)
}

// BreakerKey identifies a breaker by the space it occupies.
type BreakerKey struct {
	Panel int `json:"panel"`
	Space int `json:"space"`
}

// Breaker is a circuit breaker occupying one space of a panel. It is treated
// as an immutable value once decoded.
type Breaker struct {
	Panel             int     `json:"panel"`
	Space             int     `json:"space"`
	Meter             int     `json:"meter"`
	Hub               int     `json:"hub"`
	Port              int     `json:"port"`
	Name              string  `json:"name"`
	SizeAmps          int     `json:"size_amps"`
	CalibrationFactor float64 `json:"calibration_factor"`
	LowPassFilter     float64 `json:"low_pass_filter"`
	Polarity          string  `json:"polarity"`
	DoublePower       bool    `json:"double_power"`
	Type              string  `json:"type"`
	Description       string  `json:"description,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Key returns the (panel, space) identity of the breaker.
func (b Breaker) Key() BreakerKey {
	return BreakerKey{Panel: b.Panel, Space: b.Space}
}

type breakerAlias Breaker

var breakerFields = []string{
	"panel", "space", "meter", "hub", "port", "name", "size_amps", "calibration_factor",
	"low_pass_filter", "polarity", "double_power", "type", "description",
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Breaker) UnmarshalJSON(data []byte) error {
	var a breakerAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("invalid breaker: %w", err)
	}
	extra, err := splitExtra(data, breakerFields...)
	if err != nil {
		return err
	}
	a.Extra = extra
	*b = Breaker(a)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (b Breaker) MarshalJSON() ([]byte, error) {
	out, err := json.Marshal(breakerAlias(b))
	if err != nil {
		return nil, err
	}
	return mergeExtra(out, b.Extra)
}
