package events

import "github.com/kilianp07/cabmatch/core/model"

// Timeout sources.
const (
	SourceAllocation = "allocation"
	SourceSweep      = "sweep"
)

// DriverTimeoutEvent is published when a stale driver is moved to the timed
// out state. Source tells whether an allocation scan or the sweeper found it.
type DriverTimeoutEvent struct {
	Transition model.StateTransition
	Source     string
}
