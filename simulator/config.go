package main

import (
	"fmt"
	"time"
)

// Config holds parameters for the simulator.
type Config struct {
	Broker   string
	Topic    string
	APIURL   string
	Count    int
	Interval time.Duration
	// DropRate is the probability that a tick sends no heartbeat.
	DropRate float64
	// BusyRate is the probability that an online driver reports busy.
	BusyRate         float64
	CenterLat        float64
	CenterLng        float64
	SpreadKm         float64
	AvailabilityFile string
	Seed             int64
	Verbose          bool
}

// Validate checks the flag values.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.Count <= 0 {
		return fmt.Errorf("count must be positive")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	for name, p := range map[string]float64{"drop-rate": c.DropRate, "busy-rate": c.BusyRate} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be within [0,1]", name)
		}
	}
	if c.SpreadKm < 0 {
		return fmt.Errorf("spread must not be negative")
	}
	return nil
}
