package scenarios

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kilianp07/cabmatch/core/allocation"
	"github.com/kilianp07/cabmatch/core/dispatch"
	"github.com/kilianp07/cabmatch/core/geo"
	"github.com/kilianp07/cabmatch/core/logger"
	"github.com/kilianp07/cabmatch/core/metrics"
	"github.com/kilianp07/cabmatch/core/model"
	"github.com/kilianp07/cabmatch/core/pricing"
	"github.com/kilianp07/cabmatch/core/registry"
)

// tolerance bounds the difference accepted for fares and ETAs.
const tolerance = 0.01

// Outcome is what the allocator produced for a scenario.
type Outcome struct {
	Matched  bool
	Estimate model.RideEstimate
	// TimedOut lists the drivers left in the timed out state, sorted by id.
	TimedOut []string
}

// Run replays sc against a fresh registry and allocator.
func Run(sc *Scenario, sink metrics.MetricsSink, log logger.Logger) (Outcome, error) {
	req, err := sc.Request.ToModel()
	if err != nil {
		return Outcome{}, err
	}
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}

	tariff := pricing.Settings{BaseFare: sc.Settings.BaseFare, PerKmRate: sc.Settings.PerKmRate}
	tariff.SetDefaults()
	var acfg allocation.Config
	acfg.TimeOfDay.Enabled = sc.Settings.TimeOfDay
	acfg.SetDefaults()
	radius, err := allocation.NewRadiusPolicy(acfg)
	if err != nil {
		return Outcome{}, err
	}
	strategy, err := allocation.NewStrategy(allocation.Deps{
		Distance:       geo.Haversine{},
		Fare:           pricing.NewFareCalculator(tariff),
		Radius:         radius,
		LivenessWindow: acfg.LivenessWindow(),
	}, acfg.Strategy)
	if err != nil {
		return Outcome{}, err
	}

	store := registry.NewMemoryStore()
	for _, def := range sc.Drivers {
		d, err := def.ToModel(req.Timestamp)
		if err != nil {
			return Outcome{}, fmt.Errorf("driver %s: %w", def.ID, err)
		}
		store.Register(d)
	}

	mgr, err := dispatch.NewManager(strategy, store, acfg.LivenessWindow(), sink, nil, log)
	if err != nil {
		return Outcome{}, err
	}
	est, ok := mgr.Allocate(req)
	out := Outcome{Matched: ok, Estimate: est}
	for _, d := range store.List(registry.Filter{State: model.StateTimedOut}) {
		out.TimedOut = append(out.TimedOut, d.ID)
	}
	return out, nil
}

// Check compares out with the scenario expectations and describes every
// mismatch in the returned error.
func Check(sc *Scenario, out Outcome) error {
	exp := sc.Expected
	var problems []string
	if out.Matched != exp.Matched {
		problems = append(problems, fmt.Sprintf("matched: want %t, got %t", exp.Matched, out.Matched))
	}
	if exp.DriverID != "" && out.Estimate.DriverID != exp.DriverID {
		problems = append(problems, fmt.Sprintf("driver: want %q, got %q", exp.DriverID, out.Estimate.DriverID))
	}
	if exp.EtaMin != 0 && math.Abs(out.Estimate.EtaMin-exp.EtaMin) > tolerance {
		problems = append(problems, fmt.Sprintf("eta_min: want %.2f, got %.2f", exp.EtaMin, out.Estimate.EtaMin))
	}
	if exp.Fare != 0 && math.Abs(out.Estimate.Fare-exp.Fare) > tolerance {
		problems = append(problems, fmt.Sprintf("fare: want %.2f, got %.2f", exp.Fare, out.Estimate.Fare))
	}
	if len(exp.TimedOut) > 0 || len(out.TimedOut) > 0 {
		want := slices.Clone(exp.TimedOut)
		slices.Sort(want)
		if !slices.Equal(want, out.TimedOut) {
			problems = append(problems, fmt.Sprintf("timed_out: want %v, got %v", want, out.TimedOut))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.New(sc.Name + ": " + strings.Join(problems, "; "))
}
