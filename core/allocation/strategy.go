package allocation

import "github.com/kilianp07/cabmatch/core/model"

// EtaMinutesPerKm converts pickup distance to minutes, about 30 km/h in town.
const EtaMinutesPerKm = 2.0

// Strategy selects a driver for a request from a pool snapshot.
type Strategy interface {
	Allocate(req model.RideRequest, drivers []model.Driver) Result
}

// FareCalculator prices the ride leg.
type FareCalculator interface {
	Calculate(distanceKm, surge float64) float64
}

// Exclusion records why a driver was skipped.
type Exclusion struct {
	DriverID string
	Reason   Reason
}

// Result is the outcome of one allocation. Estimate is only meaningful when
// Matched is true.
type Result struct {
	Estimate model.RideEstimate
	Matched  bool
	// Candidates counts drivers that passed every predicate.
	Candidates  int
	Exclusions  []Exclusion
	Transitions []model.StateTransition
}

func (r *Result) exclude(id string, reason Reason) {
	r.Exclusions = append(r.Exclusions, Exclusion{DriverID: id, Reason: reason})
}

// ExclusionCounts groups exclusions by reason.
func (r Result) ExclusionCounts() map[Reason]int {
	out := make(map[Reason]int, len(r.Exclusions))
	for _, e := range r.Exclusions {
		out[e.Reason]++
	}
	return out
}
