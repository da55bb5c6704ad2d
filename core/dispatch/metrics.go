package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	allocationDuration *prometheus.HistogramVec
	driverExclusions   *prometheus.CounterVec
	driverTimeouts     *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.CounterVec) {
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "allocation_duration_seconds",
			Help:    "Time spent selecting a driver for a ride request",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"outcome"},
	)
	excl := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driver_exclusions_total",
			Help: "Drivers skipped during allocation by reason",
		},
		[]string{"reason"},
	)
	to := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driver_timeouts_total",
			Help: "Drivers moved to the timed out state",
		},
		[]string{"source"},
	)
	return dur, excl, to
}

func init() {
	allocationDuration, driverExclusions, driverTimeouts = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(allocationDuration, driverExclusions, driverTimeouts)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	allocationDuration, driverExclusions, driverTimeouts = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
