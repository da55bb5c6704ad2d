package allocation

import "github.com/kilianp07/cabmatch/core/model"

// Reason names the predicate a driver failed.
type Reason string

const (
	ReasonInactive      Reason = "inactive"
	ReasonTimedOut      Reason = "timed_out"
	ReasonCategoryExact Reason = "category_exact"
	ReasonCategory      Reason = "category"
	ReasonEVRange       Reason = "ev_range"
	ReasonRadius        Reason = "radius"
)

// Reasons lists every exclusion reason in evaluation order.
func Reasons() []Reason {
	return []Reason{ReasonInactive, ReasonTimedOut, ReasonCategoryExact, ReasonCategory, ReasonEVRange, ReasonRadius}
}

// categoryEligible applies the exact-match rule for AUTO and BIKE drivers
// and the upgrade chain for everyone else.
func categoryEligible(driver, requested model.VehicleCategory) (Reason, bool) {
	if driver.IsExactMatchOnly() {
		if driver != requested {
			return ReasonCategoryExact, false
		}
		return "", true
	}
	if !driver.Satisfies(requested) {
		return ReasonCategory, false
	}
	return "", true
}

// rangeEligible checks that an EV driver can cover the ride leg.
func rangeEligible(d model.Driver, rideKm float64) bool {
	return d.Category != model.CategoryEV || d.EVRangeKm >= rideKm
}
