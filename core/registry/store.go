package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/cabmatch/core/geo"
	"github.com/kilianp07/cabmatch/core/model"
)

// ErrNotFound is returned for operations on an unknown driver id.
var ErrNotFound = errors.New("driver not found")

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	State    model.DriverState
	Category model.VehicleCategory
	// Cells keeps drivers whose geohash cell starts with any of the values.
	Cells []string
}

// Heartbeat is a liveness signal from a driver.
type Heartbeat struct {
	DriverID string
	At       time.Time
	// State optionally changes the driver state; empty keeps the current one.
	State model.DriverState
}

// Store owns the driver pool.
type Store interface {
	Register(d model.Driver) bool
	Heartbeat(hb Heartbeat) (model.Driver, error)
	Get(id string) (model.Driver, error)
	Remove(id string) error
	Snapshot() []model.Driver
	List(f Filter) []model.Driver
	Apply(trs []model.StateTransition) []model.StateTransition
	Counts() map[model.DriverState]int
}

// MemoryStore keeps drivers in registration order behind a RWMutex. Reads
// return copies, so callers can scan a snapshot without holding the lock.
type MemoryStore struct {
	mu      sync.RWMutex
	drivers []model.Driver
	index   map[string]int
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: map[string]int{}, now: time.Now}
}

// Register inserts d or replaces the driver with the same id in place. A
// driver without a last ping is stamped with the registration time. It
// reports whether the driver was new.
func (s *MemoryStore) Register(d model.Driver) bool {
	if d.LastPing.IsZero() {
		d.LastPing = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[d.ID]; ok {
		s.drivers[i] = d
		return false
	}
	s.index[d.ID] = len(s.drivers)
	s.drivers = append(s.drivers, d)
	return true
}

// Heartbeat refreshes the last ping of a driver. Out of order heartbeats
// never move the ping backwards. Without an explicit state, a timed out
// driver becomes available again.
func (s *MemoryStore) Heartbeat(hb Heartbeat) (model.Driver, error) {
	if hb.State != "" && !hb.State.Settable() {
		return model.Driver{}, fmt.Errorf("state %q cannot be set by heartbeat", hb.State)
	}
	at := hb.At
	if at.IsZero() {
		at = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[hb.DriverID]
	if !ok {
		return model.Driver{}, fmt.Errorf("%w: %s", ErrNotFound, hb.DriverID)
	}
	d := &s.drivers[i]
	if at.After(d.LastPing) {
		d.LastPing = at
	}
	switch {
	case hb.State != "":
		d.State = hb.State
	case d.State == model.StateTimedOut:
		d.State = model.StateAvailable
	}
	return *d, nil
}

// Get returns the driver with the given id.
func (s *MemoryStore) Get(id string) (model.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Driver{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.drivers[i], nil
}

// Remove deletes a driver, keeping the order of the others.
func (s *MemoryStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.drivers = append(s.drivers[:i], s.drivers[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.drivers); j++ {
		s.index[s.drivers[j].ID] = j
	}
	return nil
}

// Snapshot returns a copy of the pool in registration order.
func (s *MemoryStore) Snapshot() []model.Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Driver, len(s.drivers))
	copy(out, s.drivers)
	return out
}

// List returns the drivers matching f sorted by id.
func (s *MemoryStore) List(f Filter) []model.Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		if f.State != "" && d.State != f.State {
			continue
		}
		if f.Category != "" && d.Category != f.Category {
			continue
		}
		if len(f.Cells) > 0 && !inCells(geo.Cell(d.Location), f.Cells) {
			continue
		}
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Apply performs the transitions whose From state still matches the stored
// driver and returns the ones applied. Transitions for drivers that changed
// state in the meantime, or were removed, are skipped.
func (s *MemoryStore) Apply(trs []model.StateTransition) []model.StateTransition {
	if len(trs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var applied []model.StateTransition
	for _, tr := range trs {
		i, ok := s.index[tr.DriverID]
		if !ok || s.drivers[i].State != tr.From || !s.drivers[i].LastPing.Equal(tr.LastPing) {
			continue
		}
		s.drivers[i].State = tr.To
		applied = append(applied, tr)
	}
	return applied
}

// Counts returns the number of drivers per state.
func (s *MemoryStore) Counts() map[model.DriverState]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[model.DriverState]int{}
	for _, d := range s.drivers {
		out[d.State]++
	}
	return out
}

func inCells(cell string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(cell, p) {
			return true
		}
	}
	return false
}
