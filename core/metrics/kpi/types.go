// Package kpi aggregates allocation outcomes per vehicle category and day.
package kpi

import (
	"time"

	"github.com/kilianp07/cabmatch/core/metrics"
	"github.com/kilianp07/cabmatch/core/model"
)

// Record holds the daily totals for one requested category.
type Record struct {
	Category      model.VehicleCategory `json:"category"`
	Date          time.Time             `json:"date"`
	Requests      int                   `json:"requests"`
	Matched       int                   `json:"matched"`
	FareTotal     float64               `json:"fare_total"`
	PickupKmTotal float64               `json:"pickup_km_total"`
}

// MatchRate is the share of requests that found a driver.
func (r Record) MatchRate() float64 {
	if r.Requests == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.Requests)
}

// AvgFare is the mean fare over matched requests.
func (r Record) AvgFare() float64 {
	if r.Matched == 0 {
		return 0
	}
	return r.FareTotal / float64(r.Matched)
}

// AvgPickupKm is the mean pickup distance over matched requests.
func (r Record) AvgPickupKm() float64 {
	if r.Matched == 0 {
		return 0
	}
	return r.PickupKmTotal / float64(r.Matched)
}

// FromAllocation converts one allocation attempt into a record increment.
func FromAllocation(ev metrics.AllocationEvent) Record {
	r := Record{Category: ev.Category, Date: Day(ev.Time), Requests: 1}
	if ev.Matched {
		r.Matched = 1
		r.FareTotal = ev.Fare
		r.PickupKmTotal = ev.PickupKm
	}
	return r
}
