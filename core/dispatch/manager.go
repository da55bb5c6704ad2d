package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/cabmatch/core/allocation"
	"github.com/kilianp07/cabmatch/core/events"
	"github.com/kilianp07/cabmatch/core/logger"
	"github.com/kilianp07/cabmatch/core/metrics"
	"github.com/kilianp07/cabmatch/core/model"
	"github.com/kilianp07/cabmatch/core/monitoring"
	"github.com/kilianp07/cabmatch/core/registry"
	"github.com/kilianp07/cabmatch/internal/eventbus"
)

// Manager runs allocations against the driver registry. It feeds the
// strategy a snapshot of the pool and applies the state transitions the
// strategy reports.
type Manager struct {
	strategy allocation.Strategy
	drivers  registry.Store
	window   time.Duration
	logger   logger.Logger
	metrics  metrics.MetricsSink
	bus      eventbus.EventBus
	now      func() time.Time
}

// NewManager wires a manager. Strategy and registry are required; a nil
// sink, bus or logger disables the corresponding output. A non-positive
// window uses allocation.DefaultLivenessWindow for sweeps.
func NewManager(strategy allocation.Strategy, drivers registry.Store, window time.Duration, sink metrics.MetricsSink, bus eventbus.EventBus, log logger.Logger) (*Manager, error) {
	if strategy == nil {
		return nil, errors.New("dispatch: strategy is required")
	}
	if drivers == nil {
		return nil, errors.New("dispatch: driver registry is required")
	}
	if window <= 0 {
		window = allocation.DefaultLivenessWindow
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Manager{
		strategy: strategy,
		drivers:  drivers,
		window:   window,
		logger:   log,
		metrics:  sink,
		bus:      bus,
		now:      time.Now,
	}, nil
}

// Allocate matches req against the current pool. A zero request timestamp
// is replaced by the current time. The boolean is false when no driver
// qualifies.
func (m *Manager) Allocate(req model.RideRequest) (model.RideEstimate, bool) {
	began := time.Now()
	if req.Timestamp.IsZero() {
		req.Timestamp = m.now()
	}
	res := m.strategy.Allocate(req, m.drivers.Snapshot())
	elapsed := time.Since(began)

	applied := m.drivers.Apply(res.Transitions)
	m.timedOut(applied, events.SourceAllocation)

	excl := make(map[string]int, len(res.Exclusions))
	for reason, n := range res.ExclusionCounts() {
		excl[string(reason)] = n
		driverExclusions.WithLabelValues(string(reason)).Add(float64(n))
	}
	ev := metrics.AllocationEvent{
		RequestID:  req.ID,
		Category:   req.Category,
		Matched:    res.Matched,
		Surge:      req.SurgeMultiplier,
		Candidates: res.Candidates,
		Exclusions: excl,
		Duration:   elapsed,
		Time:       req.Timestamp,
	}
	if res.Matched {
		ev.DriverID = res.Estimate.DriverID
		ev.DistanceKm = res.Estimate.DistanceKm
		ev.PickupKm = res.Estimate.PickupKm
		ev.EtaMin = res.Estimate.EtaMin
		ev.Fare = res.Estimate.Fare
	}
	allocationDuration.WithLabelValues(ev.Outcome()).Observe(elapsed.Seconds())
	if err := m.metrics.RecordAllocation(ev); err != nil {
		m.logger.Warnf("record allocation %s: %v", req.ID, err)
		monitoring.CaptureException(err, "dispatch_manager", map[string]string{"request_id": req.ID})
	}

	m.logger.Debugw("allocation", map[string]any{
		"request_id": req.ID,
		"category":   string(req.Category),
		"outcome":    ev.Outcome(),
		"driver_id":  ev.DriverID,
		"candidates": res.Candidates,
		"excluded":   len(res.Exclusions),
		"timed_out":  len(applied),
	})
	if !res.Matched {
		return model.RideEstimate{}, false
	}
	return res.Estimate, true
}

// Sweep marks every stale driver as timed out and returns the transitions
// applied.
func (m *Manager) Sweep(now time.Time) []model.StateTransition {
	trs := allocation.StaleTransitions(m.drivers.Snapshot(), now, m.window)
	applied := m.drivers.Apply(trs)
	m.timedOut(applied, events.SourceSweep)
	if rec, ok := m.metrics.(metrics.FleetSizeRecorder); ok {
		if err := rec.RecordFleetSize(m.drivers.Counts()); err != nil {
			m.logger.Warnf("record fleet size: %v", err)
		}
	}
	if len(applied) > 0 {
		m.logger.Infof("liveness sweep timed out %d driver(s)", len(applied))
	}
	return applied
}

// Run sweeps the registry every interval until ctx is canceled. It returns
// immediately when interval is not positive.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep(m.now())
		case <-ctx.Done():
			return
		}
	}
}

// Close releases resources held by the manager.
func (m *Manager) Close() error {
	if m.bus != nil {
		m.bus.Close()
	}
	return nil
}

func (m *Manager) timedOut(trs []model.StateTransition, source string) {
	for _, tr := range trs {
		if tr.To != model.StateTimedOut {
			continue
		}
		driverTimeouts.WithLabelValues(source).Inc()
		if m.bus != nil {
			m.bus.Publish(events.DriverTimeoutEvent{Transition: tr, Source: source})
		}
		m.logger.Debugf("driver %s timed out (last ping %s)", tr.DriverID, tr.LastPing.Format(time.RFC3339))
	}
}
