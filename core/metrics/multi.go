package metrics

import "github.com/kilianp07/cabmatch/core/model"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAllocation forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordAllocation(ev AllocationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordAllocation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordDriverTimeout forwards to sinks that record timeouts.
func (m *MultiSink) RecordDriverTimeout(ev DriverTimeoutEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DriverTimeoutRecorder); ok {
			if err := rec.RecordDriverTimeout(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFleetSize forwards to sinks that record fleet size.
func (m *MultiSink) RecordFleetSize(counts map[model.DriverState]int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FleetSizeRecorder); ok {
			if err := rec.RecordFleetSize(counts); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
