package model

import (
	"errors"
	"fmt"
	"time"
)

// Driver is a vehicle and operator pair known to the registry.
type Driver struct {
	ID        string          `json:"id"`
	Location  Coordinate      `json:"location"`
	Category  VehicleCategory `json:"category"`
	State     DriverState     `json:"state"`
	EVRangeKm float64         `json:"ev_range_km"`
	// LastPing is the time of the most recent liveness signal. The zero
	// value means no signal was ever received.
	LastPing time.Time `json:"last_ping"`
}

// Validate checks the fields a registration must carry.
func (d Driver) Validate() error {
	if d.ID == "" {
		return errors.New("driver id is required")
	}
	if !d.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, d.Category)
	}
	if !d.State.Settable() {
		return fmt.Errorf("state %q cannot be set on registration", d.State)
	}
	if d.EVRangeKm < 0 {
		return errors.New("ev_range_km must not be negative")
	}
	return d.Location.Validate()
}

// HasPinged reports whether the driver ever sent a liveness signal.
func (d Driver) HasPinged() bool { return !d.LastPing.IsZero() }
