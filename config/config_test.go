package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `http:
  addr: ":9000"
  cors_origins: ["https://ops.example"]
logging:
  level: debug
pricing:
  base_fare: 40
  per_km_rate: 10
allocation:
  default_radius_km: 4
  liveness_timeout_seconds: 600
  time_of_day:
    enabled: true
    night_start_hour: 0
    night_end_hour: 5
    timezone: "Asia/Kolkata"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: "nop"
sentry:
  environment: "test"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"http.addr", cfg.HTTP.Addr, ":9000"},
		{"http.cors_origins", len(cfg.HTTP.CORSOrigins), 1},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"pricing.base_fare", cfg.Pricing.BaseFare, 40.0},
		{"pricing.per_km_rate", cfg.Pricing.PerKmRate, 10.0},
		{"allocation.strategy", cfg.Allocation.Strategy.Type, "nearest"},
		{"allocation.default_radius_km", cfg.Allocation.DefaultRadiusKm, 4.0},
		{"allocation.liveness_timeout_seconds", cfg.Allocation.LivenessTimeoutSeconds, 600},
		{"allocation.time_of_day.enabled", cfg.Allocation.TimeOfDay.Enabled, true},
		{"allocation.time_of_day.night_start_hour", *cfg.Allocation.TimeOfDay.NightStartHour, 0},
		{"allocation.time_of_day.night_end_hour", *cfg.Allocation.TimeOfDay.NightEndHour, 5},
		{"allocation.time_of_day.day_radius_km", cfg.Allocation.TimeOfDay.DayRadiusKm, 5.0},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.client_id", cfg.MQTT.ClientID, "cli"},
		{"mqtt.heartbeat_topic", cfg.MQTT.HeartbeatTopic, "drivers/+/heartbeat"},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"metrics.sinks", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"sentry.environment", cfg.Sentry.Environment, "test"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 50.0, cfg.Pricing.BaseFare)
	assert.Equal(t, 12.0, cfg.Pricing.PerKmRate)
	assert.Equal(t, 5.0, cfg.Allocation.DefaultRadiusKm)
	assert.Equal(t, 900, cfg.Allocation.LivenessTimeoutSeconds)
	assert.False(t, cfg.Allocation.TimeOfDay.Enabled)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, Default().Pricing, cfg.Pricing)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CAB_PRICING__BASE_FARE", "65")
	t.Setenv("CAB_ALLOCATION__TIME_OF_DAY__NIGHT_RADIUS_KM", "9.5")
	t.Setenv("CAB_HTTP__ADDR", ":7000")

	path := writeConfig(t, "config.json", `{"pricing": {"base_fare": 45}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 65.0, cfg.Pricing.BaseFare)
	assert.Equal(t, 9.5, cfg.Allocation.TimeOfDay.NightRadiusKm)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "config.toml", "x = 1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "bad.yaml", "pricing:\n  per_km_rate: -1\n"))
	assert.ErrorContains(t, err, "pricing")

	_, err = Load(writeConfig(t, "bad.yaml", "logging:\n  level: chatty\n"))
	assert.ErrorContains(t, err, "logging")

	_, err = Load(writeConfig(t, "bad.yaml", "mqtt:\n  enabled: true\n"))
	assert.ErrorContains(t, err, "mqtt")

	_, err = Load(writeConfig(t, "bad.yaml", "allocation:\n  time_of_day:\n    night_start_hour: 24\n"))
	assert.ErrorContains(t, err, "allocation")
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "config.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "nearest", cfg.Allocation.Strategy.Type)
	assert.Equal(t, 900, cfg.Allocation.LivenessTimeoutSeconds)
	require.Len(t, cfg.Metrics.Sinks, 1)
	assert.Equal(t, "prometheus", cfg.Metrics.Sinks[0].Type)
	assert.False(t, cfg.MQTT.Enabled)
	assert.True(t, cfg.HTTP.AccessLog)
}
