package metrics

import (
	"time"

	"github.com/kilianp07/cabmatch/core/model"
)

// AllocationEvent summarises one allocation attempt.
type AllocationEvent struct {
	RequestID  string
	Category   model.VehicleCategory
	Matched    bool
	DriverID   string
	DistanceKm float64
	PickupKm   float64
	EtaMin     float64
	Fare       float64
	Surge      float64
	Candidates int
	// Exclusions counts skipped drivers per reason.
	Exclusions map[string]int
	Duration   time.Duration
	Time       time.Time
}

// Outcome returns "matched" or "no_match".
func (e AllocationEvent) Outcome() string {
	if e.Matched {
		return "matched"
	}
	return "no_match"
}

// MetricsSink records allocation results for observability purposes.
type MetricsSink interface {
	RecordAllocation(ev AllocationEvent) error
}

// DriverTimeoutEvent is recorded when a driver is moved to the timed out state.
type DriverTimeoutEvent struct {
	DriverID string
	LastPing time.Time
	// Source is "allocation" or "sweep".
	Source string
	Time   time.Time
}

// DriverTimeoutRecorder records liveness timeouts.
type DriverTimeoutRecorder interface {
	RecordDriverTimeout(ev DriverTimeoutEvent) error
}

// FleetSizeRecorder records the number of registered drivers per state.
type FleetSizeRecorder interface {
	RecordFleetSize(counts map[model.DriverState]int) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordAllocation(AllocationEvent) error          { return nil }
func (NopSink) RecordDriverTimeout(DriverTimeoutEvent) error    { return nil }
func (NopSink) RecordFleetSize(map[model.DriverState]int) error { return nil }
