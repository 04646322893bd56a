// Package config loads the service configuration from a YAML or JSON
// file with environment overrides.
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

	"github.com/veloway/rentd/infra/monitoring"
	"github.com/veloway/rentd/infra/mqtt"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig      `json:"server"`
	Fleet      []FleetSeed       `json:"fleet"`
	Pricing    PricingConfig     `json:"pricing"`
	Rentals    RentalsConfig     `json:"rentals"`
	Telemetry  mqtt.Config       `json:"telemetry"`
	Metrics    MetricsConfig     `json:"metrics"`
	Monitoring monitoring.Config `json:"monitoring"`
}

// Load reads the file at path (format chosen by extension), applies
// R_-prefixed environment overrides, then defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
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
		return nil, err
	}
	// Optional environment overrides, e.g. R_SERVER__ADDR.
	if err := k.Load(env.Provider("R_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "r_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Server.SetDefaults()
	cfg.Rentals.SetDefaults()
	cfg.Telemetry.SetDefaults()
	cfg.Metrics.SetDefaults()
	if len(cfg.Fleet) == 0 {
		cfg.Fleet = DefaultFleet()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given: the
// built-in fleet and pricing on a local listener.
func Default() *Config {
	cfg := &Config{Fleet: DefaultFleet()}
	cfg.Server.SetDefaults()
	cfg.Rentals.SetDefaults()
	cfg.Telemetry.SetDefaults()
	cfg.Metrics.SetDefaults()
	return cfg
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Rentals.Validate(); err != nil {
		return err
	}
	if err := c.Pricing.Validate(); err != nil {
		return err
	}
	for _, v := range c.Fleet {
		if err := v.Vehicle().Validate(); err != nil {
			return err
		}
	}
	return nil
}
