package geo

import (
	"github.com/mmcloughlin/geohash"

	"github.com/kilianp07/cabmatch/core/model"
)

// CellPrecision is the geohash length used to bucket drivers, roughly 1.2 km x 0.6 km.
const CellPrecision uint = 6

// Cell returns the geohash cell containing c.
func Cell(c model.Coordinate) string {
	return geohash.EncodeWithPrecision(c.Lat, c.Lng, CellPrecision)
}

// Neighbourhood returns the cell of c followed by its eight neighbours.
func Neighbourhood(c model.Coordinate) []string {
	cell := Cell(c)
	return append([]string{cell}, geohash.Neighbors(cell)...)
}

// CellCenter decodes a geohash cell to its centre point.
func CellCenter(cell string) model.Coordinate {
	lat, lng := geohash.DecodeCenter(cell)
	return model.Coordinate{Lat: lat, Lng: lng}
}
