package main

import (
	"math/rand"
	"time"

	"github.com/kilianp07/cabmatch/api/drivers"
	"github.com/kilianp07/cabmatch/core/model"
)

// SimulatedDriver is one synthetic member of the fleet.
type SimulatedDriver struct {
	ID           string
	Category     model.VehicleCategory
	Location     model.Coordinate
	EVRangeKm    float64
	Availability [24]float64
	DropRate     float64
	BusyRate     float64
}

// Next decides what the driver reports at now. The boolean is false when the
// heartbeat is dropped, which lets the allocator time the driver out.
func (d SimulatedDriver) Next(now time.Time, r *rand.Rand) (model.DriverState, bool) {
	if d.DropRate > 0 && r.Float64() < d.DropRate {
		return "", false
	}
	if r.Float64() >= d.Availability[now.Hour()] {
		return model.StateOffline, true
	}
	if d.BusyRate > 0 && r.Float64() < d.BusyRate {
		return model.StateBusy, true
	}
	return model.StateAvailable, true
}

// Registration is the body posted to the driver registry.
func (d SimulatedDriver) Registration(now time.Time) drivers.Driver {
	return drivers.FromModel(model.Driver{
		ID:        d.ID,
		Location:  d.Location,
		Category:  d.Category,
		State:     model.StateAvailable,
		EVRangeKm: d.EVRangeKm,
		LastPing:  now,
	})
}
