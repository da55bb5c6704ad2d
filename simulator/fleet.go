package main

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/kilianp07/cabmatch/core/geo"
	"github.com/kilianp07/cabmatch/core/model"
)

// FleetConfig holds parameters for bulk fleet generation.
type FleetConfig struct {
	Size     int
	Center   model.Coordinate
	SpreadKm float64
	// Availability is the hourly probability that a driver is online.
	Availability [24]float64
	DropRate     float64
	BusyRate     float64
}

// GenerateFleet creates Size drivers with IDs drv0001..drvNNNN scattered
// uniformly over a square of SpreadKm around Center.
func GenerateFleet(cfg FleetConfig, r *rand.Rand) []SimulatedDriver {
	if cfg.Size <= 0 {
		return nil
	}
	cats := model.Categories()
	kmPerDegLat := geo.EarthRadiusKm * math.Pi / 180
	kmPerDegLng := kmPerDegLat * math.Cos(cfg.Center.Lat*math.Pi/180)
	ds := make([]SimulatedDriver, cfg.Size)
	for i := range ds {
		d := SimulatedDriver{
			ID:           fmt.Sprintf("drv%04d", i+1),
			Category:     cats[r.Intn(len(cats))],
			Availability: cfg.Availability,
			DropRate:     cfg.DropRate,
			BusyRate:     cfg.BusyRate,
		}
		d.Location = cfg.Center
		if cfg.SpreadKm > 0 {
			d.Location.Lat += (r.Float64() - 0.5) * cfg.SpreadKm / kmPerDegLat
			if kmPerDegLng > 0 {
				d.Location.Lng += (r.Float64() - 0.5) * cfg.SpreadKm / kmPerDegLng
			}
		}
		if d.Category == model.CategoryEV {
			d.EVRangeKm = 50 + math.Round(r.Float64()*250)
		}
		ds[i] = d
	}
	return ds
}

// LoadAvailabilityProfile reads an hourly availability profile from JSON
// keyed by hour ("0".."23"). Missing hours default to 1.
func LoadAvailabilityProfile(data []byte) ([24]float64, error) {
	var m map[string]float64
	prof := FullAvailability()
	if err := json.Unmarshal(data, &m); err != nil {
		return prof, err
	}
	for h, v := range m {
		var hour int
		if _, err := fmt.Sscanf(h, "%d", &hour); err != nil {
			continue
		}
		if hour >= 0 && hour < 24 {
			prof[hour] = v
		}
	}
	return prof, nil
}

// FullAvailability keeps every driver online around the clock.
func FullAvailability() [24]float64 {
	var prof [24]float64
	for i := range prof {
		prof[i] = 1
	}
	return prof
}
