package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/cabmatch/core/metrics"
	"github.com/kilianp07/cabmatch/core/model"
)

// PromSink records allocation outcomes in Prometheus metrics.
type PromSink struct {
	allocations *prometheus.CounterVec
	pickup      *prometheus.HistogramVec
	fares       *prometheus.HistogramVec
	fleet       *prometheus.GaugeVec
}

// NewPromSink registers allocation metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocations_total",
		Help: "Ride allocation attempts by requested category and outcome",
	}, []string{"category", "outcome"})
	pickup := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "allocation_pickup_km",
		Help:    "Distance from the assigned driver to the pickup point",
		Buckets: []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8},
	}, []string{"category"})
	fares := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "allocation_fare",
		Help:    "Quoted fare of matched rides",
		Buckets: prometheus.ExponentialBuckets(50, 1.5, 10),
	}, []string{"category"})
	fleet := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "drivers_registered",
		Help: "Registered drivers by state",
	}, []string{"state"})

	var err error
	if allocations, err = register(reg, allocations); err != nil {
		return nil, err
	}
	if pickup, err = register(reg, pickup); err != nil {
		return nil, err
	}
	if fares, err = register(reg, fares); err != nil {
		return nil, err
	}
	if fleet, err = register(reg, fleet); err != nil {
		return nil, err
	}
	return &PromSink{allocations: allocations, pickup: pickup, fares: fares, fleet: fleet}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordAllocation counts the attempt and, for matches, observes pickup
// distance and fare.
func (s *PromSink) RecordAllocation(ev coremetrics.AllocationEvent) error {
	cat := string(ev.Category)
	s.allocations.WithLabelValues(cat, ev.Outcome()).Inc()
	if ev.Matched {
		s.pickup.WithLabelValues(cat).Observe(ev.PickupKm)
		s.fares.WithLabelValues(cat).Observe(ev.Fare)
	}
	return nil
}

// RecordFleetSize sets the registry gauge for every known state.
func (s *PromSink) RecordFleetSize(counts map[model.DriverState]int) error {
	for _, st := range []model.DriverState{model.StateAvailable, model.StateBusy, model.StateOffline, model.StateTimedOut} {
		s.fleet.WithLabelValues(string(st)).Set(float64(counts[st]))
	}
	return nil
}
