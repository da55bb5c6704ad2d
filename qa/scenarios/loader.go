// Package scenarios replays declarative allocation scenarios against the
// real allocator.
package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/cabmatch/core/model"
)

// DriverDef describes one driver in the pool.
type DriverDef struct {
	ID        string     `yaml:"id"`
	Location  [2]float64 `yaml:"location"`
	Category  string     `yaml:"category"`
	State     string     `yaml:"state,omitempty"`
	EVRangeKm float64    `yaml:"ev_range_km,omitempty"`
	// SilentSeconds is how long before the request the driver last pinged.
	SilentSeconds float64 `yaml:"silent_seconds,omitempty"`
	// NeverPinged leaves LastPing unset.
	NeverPinged bool `yaml:"never_pinged,omitempty"`
}

// ToModel converts the definition relative to the request time.
func (d DriverDef) ToModel(at time.Time) (model.Driver, error) {
	cat, err := model.ParseCategory(d.Category)
	if err != nil {
		return model.Driver{}, err
	}
	st := model.StateAvailable
	if d.State != "" {
		if st, err = model.ParseState(d.State); err != nil {
			return model.Driver{}, err
		}
	}
	out := model.Driver{
		ID:        d.ID,
		Location:  model.Coordinate{Lat: d.Location[0], Lng: d.Location[1]},
		Category:  cat,
		State:     st,
		EVRangeKm: d.EVRangeKm,
	}
	if !d.NeverPinged {
		out.LastPing = at.Add(-time.Duration(d.SilentSeconds * float64(time.Second)))
	}
	return out, nil
}

// RequestDef describes the ride request.
type RequestDef struct {
	ID       string     `yaml:"id"`
	Pickup   [2]float64 `yaml:"pickup"`
	Dropoff  [2]float64 `yaml:"dropoff"`
	Category string     `yaml:"category"`
	Surge    *float64   `yaml:"surge,omitempty"`
	// Time is an RFC 3339 timestamp; empty means noon UTC on 2024-01-01.
	Time string `yaml:"time,omitempty"`
}

// DefaultTime is the request time used when a scenario names none.
var DefaultTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// ToModel converts the definition.
func (r RequestDef) ToModel() (model.RideRequest, error) {
	cat, err := model.ParseCategory(r.Category)
	if err != nil {
		return model.RideRequest{}, err
	}
	at := DefaultTime
	if r.Time != "" {
		if at, err = time.Parse(time.RFC3339, r.Time); err != nil {
			return model.RideRequest{}, fmt.Errorf("request time: %w", err)
		}
	}
	surge := model.DefaultSurgeMultiplier
	if r.Surge != nil {
		surge = *r.Surge
	}
	id := r.ID
	if id == "" {
		id = "scenario"
	}
	return model.RideRequest{
		ID:              id,
		Pickup:          model.Coordinate{Lat: r.Pickup[0], Lng: r.Pickup[1]},
		Dropoff:         model.Coordinate{Lat: r.Dropoff[0], Lng: r.Dropoff[1]},
		Category:        cat,
		SurgeMultiplier: surge,
		Timestamp:       at,
	}, nil
}

// Expected is the outcome a scenario asserts. Zero numeric fields are not
// checked.
type Expected struct {
	Matched  bool     `yaml:"matched"`
	DriverID string   `yaml:"driver_id,omitempty"`
	EtaMin   float64  `yaml:"eta_min,omitempty"`
	Fare     float64  `yaml:"fare,omitempty"`
	TimedOut []string `yaml:"timed_out,omitempty"`
}

// Settings overrides the tariff and radius policy.
type Settings struct {
	BaseFare  float64 `yaml:"base_fare,omitempty"`
	PerKmRate float64 `yaml:"per_km_rate,omitempty"`
	// TimeOfDay enables the day/night pickup radius.
	TimeOfDay bool `yaml:"time_of_day,omitempty"`
}

type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Settings    Settings    `yaml:"settings,omitempty"`
	Drivers     []DriverDef `yaml:"drivers"`
	Request     RequestDef  `yaml:"request"`
	Expected    Expected    `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	return &sc, nil
}

// LoadDir loads every *.yaml file in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
