package model

import (
	"errors"
	"fmt"
	"strings"
)

// VehicleCategory is the class of vehicle a driver operates or a rider asks for.
type VehicleCategory string

const (
	CategoryMini  VehicleCategory = "mini"
	CategorySedan VehicleCategory = "sedan"
	CategoryEV    VehicleCategory = "ev"
	CategorySUV   VehicleCategory = "suv"
	CategoryAuto  VehicleCategory = "auto"
	CategoryBike  VehicleCategory = "bike"
)

// ErrUnknownCategory is returned when parsing an unsupported category name.
var ErrUnknownCategory = errors.New("unknown vehicle category")

// upgradeChain lists the categories a request may be upgraded through, lowest first.
var upgradeChain = []VehicleCategory{CategoryMini, CategorySedan, CategoryEV, CategorySUV}

// exactMatchOnly categories are served only by drivers of the same category.
var exactMatchOnly = map[VehicleCategory]struct{}{
	CategoryAuto: {},
	CategoryBike: {},
}

// Categories returns every supported category.
func Categories() []VehicleCategory {
	out := make([]VehicleCategory, 0, len(upgradeChain)+len(exactMatchOnly))
	out = append(out, upgradeChain...)
	return append(out, CategoryAuto, CategoryBike)
}

// ParseCategory converts a case-insensitive name to a VehicleCategory.
func ParseCategory(s string) (VehicleCategory, error) {
	c := VehicleCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Valid reports whether c is one of the supported categories.
func (c VehicleCategory) Valid() bool {
	if _, ok := exactMatchOnly[c]; ok {
		return true
	}
	return chainIndex(c) >= 0
}

func (c VehicleCategory) String() string { return string(c) }

// UnmarshalText rejects unknown category names.
func (c *VehicleCategory) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// IsExactMatchOnly reports whether c is outside the upgrade chain.
func (c VehicleCategory) IsExactMatchOnly() bool {
	_, ok := exactMatchOnly[c]
	return ok
}

// Next returns the category one tier above c in the upgrade chain.
func (c VehicleCategory) Next() (VehicleCategory, bool) {
	i := chainIndex(c)
	if i < 0 || i == len(upgradeChain)-1 {
		return "", false
	}
	return upgradeChain[i+1], true
}

// Satisfies reports whether a driver of category c can serve a request for
// requested: the categories are equal, or requested reaches c by upgrading
// zero or more times. Exact-match categories only satisfy themselves.
func (c VehicleCategory) Satisfies(requested VehicleCategory) bool {
	if c == requested {
		return true
	}
	from := chainIndex(requested)
	to := chainIndex(c)
	return from >= 0 && to >= from
}

func chainIndex(c VehicleCategory) int {
	for i, v := range upgradeChain {
		if v == c {
			return i
		}
	}
	return -1
}
