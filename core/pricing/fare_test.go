package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		name     string
		settings Settings
		distance float64
		surge    float64
		want     float64
	}{
		{"surged", Settings{BaseFare: 50, PerKmRate: 10}, 10, 1.5, 225.0},
		{"defaults", Settings{BaseFare: DefaultBaseFare, PerKmRate: DefaultPerKmRate}, 2, 1, 74},
		{"zero surge", Settings{BaseFare: 50, PerKmRate: 10}, 3, 0, 0},
		{"negative surge passes through", Settings{BaseFare: 50, PerKmRate: 10}, 5, -1, -100},
		{"zero distance", Settings{BaseFare: 40, PerKmRate: 10}, 0, 2, 80},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := NewFareCalculator(c.settings).Calculate(c.distance, c.surge)
			assert.InDelta(t, c.want, got, 1e-9)
		})
	}
}

func TestSettingsDefaultsAndValidate(t *testing.T) {
	var s Settings
	s.SetDefaults()
	assert.Equal(t, DefaultBaseFare, s.BaseFare)
	assert.Equal(t, DefaultPerKmRate, s.PerKmRate)
	assert.NoError(t, s.Validate())

	assert.Error(t, Settings{BaseFare: -1}.Validate())
	assert.Error(t, Settings{PerKmRate: -0.5}.Validate())
}
