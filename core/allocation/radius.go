package allocation

import (
	"fmt"
	"time"
)

const (
	DefaultRadiusKm      = 5.0
	DefaultDayRadiusKm   = 5.0
	DefaultNightRadiusKm = 8.0
	DefaultNightStart    = 22
	DefaultNightEnd      = 6
)

// RadiusPolicy returns the maximum pickup distance allowed at a given time.
type RadiusPolicy interface {
	MaxRadiusKm(at time.Time) float64
}

// StaticRadius applies the same radius at all times.
type StaticRadius float64

func (r StaticRadius) MaxRadiusKm(time.Time) float64 { return float64(r) }

// TimeOfDayRadius widens the radius during night hours. Night runs from
// NightStart (inclusive) to NightEnd (exclusive) and may wrap midnight.
type TimeOfDayRadius struct {
	DayKm      float64
	NightKm    float64
	NightStart int
	NightEnd   int
	// Location is the time zone the hour is read in; nil keeps the
	// timestamp's own zone.
	Location *time.Location
}

// MaxRadiusKm returns NightKm during night hours and DayKm otherwise.
func (p TimeOfDayRadius) MaxRadiusKm(at time.Time) float64 {
	if p.Location != nil {
		at = at.In(p.Location)
	}
	if p.IsNight(at.Hour()) {
		return p.NightKm
	}
	return p.DayKm
}

// IsNight reports whether hour h falls in the night window.
func (p TimeOfDayRadius) IsNight(h int) bool {
	if p.NightStart > p.NightEnd {
		return h >= p.NightStart || h < p.NightEnd
	}
	return h >= p.NightStart && h < p.NightEnd
}

// NewRadiusPolicy builds the policy described by cfg: a time-of-day policy
// when enabled, the static default radius otherwise.
func NewRadiusPolicy(cfg Config) (RadiusPolicy, error) {
	tod := cfg.TimeOfDay
	if !tod.Enabled {
		return StaticRadius(cfg.DefaultRadiusKm), nil
	}
	p := TimeOfDayRadius{
		DayKm:      tod.DayRadiusKm,
		NightKm:    tod.NightRadiusKm,
		NightStart: *tod.NightStartHour,
		NightEnd:   *tod.NightEndHour,
	}
	if tod.Timezone != "" {
		loc, err := time.LoadLocation(tod.Timezone)
		if err != nil {
			return nil, fmt.Errorf("time_of_day timezone: %w", err)
		}
		p.Location = loc
	}
	return p, nil
}
