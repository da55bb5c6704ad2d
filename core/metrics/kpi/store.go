package kpi

import (
	"time"

	"github.com/kilianp07/cabmatch/core/metrics"
)

// Store persists KPI records, summing increments that share a category and
// day.
type Store interface {
	Add(Record) error
	// Query returns the records between start and end inclusive, ordered by
	// day then category.
	Query(start, end time.Time) ([]Record, error)
}

// Day aligns t to the start of its day in UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Sink records allocation events into a Store.
type Sink struct {
	store Store
}

// NewSink wraps store as a metrics sink.
func NewSink(store Store) *Sink { return &Sink{store: store} }

// RecordAllocation adds the event to the daily totals.
func (s *Sink) RecordAllocation(ev metrics.AllocationEvent) error {
	return s.store.Add(FromAllocation(ev))
}

// Close closes the store when it holds resources.
func (s *Sink) Close() {
	if c, ok := s.store.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
