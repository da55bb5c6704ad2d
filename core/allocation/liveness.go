package allocation

import (
	"time"

	"github.com/kilianp07/cabmatch/core/model"
)

// DefaultLivenessWindow is how long a driver may go without a heartbeat.
const DefaultLivenessWindow = 15 * time.Minute

// EvaluateLiveness reports whether d can take a ride at the given time and
// the state d should be in. Offline drivers are never active. A driver whose
// last ping is older than window is stale and moves to StateTimedOut. A
// driver that never pinged is not judged stale.
func EvaluateLiveness(d model.Driver, at time.Time, window time.Duration) (bool, model.DriverState) {
	if d.State == model.StateOffline {
		return false, d.State
	}
	if d.HasPinged() && at.Sub(d.LastPing) > window {
		return false, model.StateTimedOut
	}
	return d.State == model.StateAvailable, d.State
}

// StaleTransitions evaluates liveness for every driver and returns the
// transitions to apply, in pool order.
func StaleTransitions(drivers []model.Driver, at time.Time, window time.Duration) []model.StateTransition {
	var out []model.StateTransition
	for _, d := range drivers {
		if _, next := EvaluateLiveness(d, at, window); next != d.State {
			out = append(out, model.StateTransition{DriverID: d.ID, From: d.State, To: next, LastPing: d.LastPing, At: at})
		}
	}
	return out
}
