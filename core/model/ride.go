package model

import (
	"fmt"
	"time"
)

// DefaultSurgeMultiplier applies when a request carries no surge.
const DefaultSurgeMultiplier = 1.0

// RideRequest is a rider's request for a vehicle. It is treated as immutable.
type RideRequest struct {
	ID              string          `json:"id"`
	Pickup          Coordinate      `json:"pickup"`
	Dropoff         Coordinate      `json:"dropoff"`
	Category        VehicleCategory `json:"category"`
	SurgeMultiplier float64         `json:"surge_multiplier"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Validate checks the request fields the transport layer is responsible for.
// The surge multiplier is passed through unchecked.
func (r RideRequest) Validate() error {
	if !r.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, r.Category)
	}
	if err := r.Pickup.Validate(); err != nil {
		return fmt.Errorf("pickup: %w", err)
	}
	if err := r.Dropoff.Validate(); err != nil {
		return fmt.Errorf("dropoff: %w", err)
	}
	return nil
}

// RideEstimate is the outcome of a successful allocation.
type RideEstimate struct {
	Request RideRequest `json:"request"`
	// DriverID identifies the selected driver.
	DriverID string `json:"driver_id"`
	// DistanceKm is the ride leg, pickup to dropoff.
	DistanceKm float64 `json:"distance_km"`
	// PickupKm is the pickup leg, driver to pickup.
	PickupKm float64 `json:"pickup_km"`
	EtaMin   float64 `json:"eta_min"`
	Fare     float64 `json:"fare"`
}
