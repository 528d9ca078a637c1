// Package instrument models the telescope an observation run is planned
// for: its geographic site and the elevation range it can point at.
package instrument

import (
	"encoding/json"
	"fmt"
)

// Default pointing limits applied when the capabilities section is absent.
const (
	DefaultMinElevation = 0.0
	DefaultMaxElevation = 90.0
)

// Location is the instrument's geographic site.
type Location struct {
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude,omitempty"`
}

// Capabilities are the instrument's mechanical pointing limits in degrees
// of elevation above the horizon.
type Capabilities struct {
	MinElevation float64 `json:"min_elevation"`
	MaxElevation float64 `json:"max_elevation"`
}

// Instrument describes one telescope. Immutable after decoding.
type Instrument struct {
	Name         string       `json:"name,omitempty"`
	Location     Location     `json:"location"`
	Capabilities Capabilities `json:"capabilities"`
}

// Decode parses the `instrument` section of a context configuration.
func Decode(raw json.RawMessage) (*Instrument, error) {
	var inst Instrument
	inst.Capabilities = Capabilities{
		MinElevation: DefaultMinElevation,
		MaxElevation: DefaultMaxElevation,
	}

	if err := json.Unmarshal(raw, &inst); err != nil {
		return nil, fmt.Errorf("decoding instrument: %w", err)
	}

	if err := inst.validate(); err != nil {
		return nil, err
	}
	return &inst, nil
}

func (i *Instrument) validate() error {
	if i.Location.Latitude < -90 || i.Location.Latitude > 90 {
		return fmt.Errorf("instrument latitude %v out of range [-90, 90]", i.Location.Latitude)
	}
	if i.Location.Longitude < -180 || i.Location.Longitude > 180 {
		return fmt.Errorf("instrument longitude %v out of range [-180, 180]", i.Location.Longitude)
	}
	if i.Capabilities.MinElevation > i.Capabilities.MaxElevation {
		return fmt.Errorf("instrument min elevation %v above max elevation %v",
			i.Capabilities.MinElevation, i.Capabilities.MaxElevation)
	}
	return nil
}
