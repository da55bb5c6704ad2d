package pricing

import "fmt"

const (
	DefaultBaseFare  = 50.0
	DefaultPerKmRate = 12.0
)

// Settings holds the tariff used to price a ride.
type Settings struct {
	BaseFare  float64 `json:"base_fare"`
	PerKmRate float64 `json:"per_km_rate"`
}

// SetDefaults fills unset values with the standard tariff.
func (s *Settings) SetDefaults() {
	if s.BaseFare == 0 {
		s.BaseFare = DefaultBaseFare
	}
	if s.PerKmRate == 0 {
		s.PerKmRate = DefaultPerKmRate
	}
}

// Validate rejects negative tariff components.
func (s Settings) Validate() error {
	if s.BaseFare < 0 {
		return fmt.Errorf("base_fare must not be negative: %v", s.BaseFare)
	}
	if s.PerKmRate < 0 {
		return fmt.Errorf("per_km_rate must not be negative: %v", s.PerKmRate)
	}
	return nil
}

// FareCalculator prices rides from their distance and surge multiplier.
type FareCalculator struct {
	settings Settings
}

// NewFareCalculator returns a calculator using the given tariff as is.
func NewFareCalculator(s Settings) FareCalculator {
	return FareCalculator{settings: s}
}

// Settings returns the tariff in use.
func (f FareCalculator) Settings() Settings { return f.settings }

// Calculate returns (base + distance*rate) * surge. The surge is not clamped,
// so zero yields a free ride and a negative value a negative fare.
func (f FareCalculator) Calculate(distanceKm, surge float64) float64 {
	return (f.settings.BaseFare + distanceKm*f.settings.PerKmRate) * surge
}
