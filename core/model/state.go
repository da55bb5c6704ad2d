package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DriverState is the lifecycle state of a driver.
type DriverState string

const (
	StateAvailable DriverState = "available"
	StateBusy      DriverState = "busy"
	StateOffline   DriverState = "offline"
	// StateTimedOut is derived by liveness evaluation and never set by clients.
	StateTimedOut DriverState = "timed_out"
)

// ErrUnknownState is returned when parsing an unsupported state name.
var ErrUnknownState = errors.New("unknown driver state")

// ParseState converts a case-insensitive name to a DriverState.
func ParseState(s string) (DriverState, error) {
	st := DriverState(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StateAvailable, StateBusy, StateOffline, StateTimedOut:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownState, s)
}

func (s DriverState) String() string { return string(s) }

// UnmarshalText rejects unknown state names.
func (s *DriverState) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Settable reports whether clients may assign the state directly.
func (s DriverState) Settable() bool {
	return s == StateAvailable || s == StateBusy || s == StateOffline
}

// StateTransition records a state change observed for a driver.
type StateTransition struct {
	DriverID string
	From     DriverState
	To       DriverState
	// LastPing is the liveness timestamp the transition was decided on.
	LastPing time.Time
	At       time.Time
}
