package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/cabmatch/core/allocation"
	"github.com/kilianp07/cabmatch/core/metrics"
	"github.com/kilianp07/cabmatch/core/pricing"
	"github.com/kilianp07/cabmatch/infra/mqtt"
)

// EnvPrefix prefixes environment overrides. Nested keys are joined with a
// double underscore, e.g. CAB_PRICING__BASE_FARE.
const EnvPrefix = "CAB_"

type Config struct {
	HTTP       HTTPConfig        `json:"http"`
	Logging    LoggingConfig     `json:"logging"`
	Pricing    pricing.Settings  `json:"pricing"`
	Allocation allocation.Config `json:"allocation"`
	MQTT       mqtt.Config       `json:"mqtt"`
	Metrics    metrics.Config    `json:"metrics"`
	Sentry     SentryConfig      `json:"sentry"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr        string   `json:"addr"`
	CORSOrigins []string `json:"cors_origins"`
	// AccessLog writes one combined log line per request.
	AccessLog bool `json:"access_log"`
}

// Load reads the optional file at path, applies environment overrides,
// fills defaults and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or override is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills unset values in every section.
func (c *Config) SetDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	c.Logging.SetDefaults()
	c.Pricing.SetDefaults()
	c.Allocation.SetDefaults()
	c.MQTT.SetDefaults()
}

// Validate checks every section and names the failing one.
func (c Config) Validate() error {
	checks := []struct {
		section string
		fn      func() error
	}{
		{"logging", c.Logging.Validate},
		{"pricing", c.Pricing.Validate},
		{"allocation", c.Allocation.Validate},
		{"mqtt", c.MQTT.Validate},
		{"metrics", c.Metrics.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.section, err)
		}
	}
	return nil
}
