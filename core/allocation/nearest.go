package allocation

import (
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/cabmatch/core/geo"
	"github.com/kilianp07/cabmatch/core/model"
	"github.com/kilianp07/cabmatch/core/pricing"
)

// NearestStrategy assigns the eligible driver closest to the pickup point.
type NearestStrategy struct {
	dist   geo.DistanceProvider
	fare   FareCalculator
	radius RadiusPolicy
	window time.Duration
}

// NewNearestStrategy returns a strategy using the given collaborators. Nil
// collaborators fall back to haversine distance, the default tariff and the
// static default radius; a non-positive window uses DefaultLivenessWindow.
func NewNearestStrategy(dist geo.DistanceProvider, fare FareCalculator, radius RadiusPolicy, window time.Duration) *NearestStrategy {
	if dist == nil {
		dist = geo.Haversine{}
	}
	if fare == nil {
		fare = pricing.NewFareCalculator(pricing.Settings{BaseFare: pricing.DefaultBaseFare, PerKmRate: pricing.DefaultPerKmRate})
	}
	if radius == nil {
		radius = StaticRadius(DefaultRadiusKm)
	}
	if window <= 0 {
		window = DefaultLivenessWindow
	}
	return &NearestStrategy{dist: dist, fare: fare, radius: radius, window: window}
}

// Allocate scans drivers once, in order, and keeps the first driver with the
// smallest pickup distance among those passing every predicate.
func (s *NearestStrategy) Allocate(req model.RideRequest, drivers []model.Driver) Result {
	var res Result
	rideKm := s.dist.DistanceKm(req.Pickup, req.Dropoff)
	maxKm := s.radius.MaxRadiusKm(req.Timestamp)

	var (
		picked []int
		etas   []float64
	)
	for i := range drivers {
		d := drivers[i]
		active, next := EvaluateLiveness(d, req.Timestamp, s.window)
		if next != d.State {
			res.Transitions = append(res.Transitions, model.StateTransition{
				DriverID: d.ID, From: d.State, To: next, LastPing: d.LastPing, At: req.Timestamp,
			})
		}
		if !active {
			if next == model.StateTimedOut {
				res.exclude(d.ID, ReasonTimedOut)
			} else {
				res.exclude(d.ID, ReasonInactive)
			}
			continue
		}
		if reason, ok := categoryEligible(d.Category, req.Category); !ok {
			res.exclude(d.ID, reason)
			continue
		}
		if !rangeEligible(d, rideKm) {
			res.exclude(d.ID, ReasonEVRange)
			continue
		}
		eta := s.dist.DistanceKm(d.Location, req.Pickup)
		if eta > maxKm {
			res.exclude(d.ID, ReasonRadius)
			continue
		}
		picked = append(picked, i)
		etas = append(etas, eta)
	}

	res.Candidates = len(etas)
	if len(etas) == 0 {
		return res
	}
	// MinIdx returns the first index on ties, preserving pool order.
	best := floats.MinIdx(etas)
	pickupKm := etas[best]
	res.Matched = true
	res.Estimate = model.RideEstimate{
		Request:    req,
		DriverID:   drivers[picked[best]].ID,
		DistanceKm: rideKm,
		PickupKm:   pickupKm,
		EtaMin:     pickupKm * EtaMinutesPerKm,
		Fare:       s.fare.Calculate(rideKm, req.SurgeMultiplier),
	}
	return res
}
