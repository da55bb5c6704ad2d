package geo

import (
	"math"

	"github.com/kilianp07/cabmatch/core/model"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// DistanceProvider computes the straight-line distance between two points.
// Implementations must be symmetric and return zero for identical points.
type DistanceProvider interface {
	DistanceKm(a, b model.Coordinate) float64
}

// Haversine computes great-circle distances. The zero value uses EarthRadiusKm.
type Haversine struct {
	RadiusKm float64
}

// DistanceKm returns the great-circle distance between a and b in kilometres.
func (h Haversine) DistanceKm(a, b model.Coordinate) float64 {
	r := h.RadiusKm
	if r <= 0 {
		r = EarthRadiusKm
	}
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	hav := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	// rounding can push the chord past 1 near antipodes
	return 2 * r * math.Asin(math.Min(1, math.Sqrt(hav)))
}
