package allocation

import (
	"fmt"
	"time"

	"github.com/kilianp07/cabmatch/core/factory"
)

// Config defines allocation settings.
type Config struct {
	// Strategy selects the registered strategy; defaults to "nearest".
	Strategy               factory.ModuleConfig `json:"strategy"`
	DefaultRadiusKm        float64              `json:"default_radius_km"`
	LivenessTimeoutSeconds int                  `json:"liveness_timeout_seconds"`
	// SweepIntervalSeconds controls the background liveness sweep. Zero
	// selects the default interval, a negative value disables the sweep.
	SweepIntervalSeconds int             `json:"sweep_interval_seconds"`
	TimeOfDay            TimeOfDayConfig `json:"time_of_day"`
}

// TimeOfDayConfig configures the day/night pickup radius policy.
type TimeOfDayConfig struct {
	Enabled        bool    `json:"enabled"`
	DayRadiusKm    float64 `json:"day_radius_km"`
	NightRadiusKm  float64 `json:"night_radius_km"`
	NightStartHour *int    `json:"night_start_hour"`
	NightEndHour   *int    `json:"night_end_hour"`
	Timezone       string  `json:"timezone"`
}

// SetDefaults applies the standard allocation settings to unset fields.
func (c *Config) SetDefaults() {
	if c.Strategy.Type == "" {
		c.Strategy.Type = "nearest"
	}
	if c.DefaultRadiusKm == 0 {
		c.DefaultRadiusKm = DefaultRadiusKm
	}
	if c.LivenessTimeoutSeconds == 0 {
		c.LivenessTimeoutSeconds = int(DefaultLivenessWindow / time.Second)
	}
	if c.SweepIntervalSeconds == 0 {
		c.SweepIntervalSeconds = 60
	}
	t := &c.TimeOfDay
	if t.DayRadiusKm == 0 {
		t.DayRadiusKm = DefaultDayRadiusKm
	}
	if t.NightRadiusKm == 0 {
		t.NightRadiusKm = DefaultNightRadiusKm
	}
	if t.NightStartHour == nil {
		h := DefaultNightStart
		t.NightStartHour = &h
	}
	if t.NightEndHour == nil {
		h := DefaultNightEnd
		t.NightEndHour = &h
	}
}

// Validate checks the values after defaults were applied.
func (c Config) Validate() error {
	if c.DefaultRadiusKm <= 0 {
		return fmt.Errorf("default_radius_km must be positive")
	}
	if c.LivenessTimeoutSeconds <= 0 {
		return fmt.Errorf("liveness_timeout_seconds must be positive")
	}
	t := c.TimeOfDay
	if t.DayRadiusKm <= 0 || t.NightRadiusKm <= 0 {
		return fmt.Errorf("time_of_day radii must be positive")
	}
	for name, h := range map[string]*int{"night_start_hour": t.NightStartHour, "night_end_hour": t.NightEndHour} {
		if h == nil || *h < 0 || *h > 23 {
			return fmt.Errorf("time_of_day %s must be within 0-23", name)
		}
	}
	if t.Timezone != "" {
		if _, err := time.LoadLocation(t.Timezone); err != nil {
			return fmt.Errorf("time_of_day timezone: %w", err)
		}
	}
	return nil
}

// LivenessWindow returns the configured liveness timeout.
func (c Config) LivenessWindow() time.Duration {
	return time.Duration(c.LivenessTimeoutSeconds) * time.Second
}

// SweepInterval returns the sweep period, or zero when sweeping is disabled.
func (c Config) SweepInterval() time.Duration {
	if c.SweepIntervalSeconds < 0 {
		return 0
	}
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}
