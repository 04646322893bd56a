package config

import (
	"fmt"
	"os"

	"github.com/veloway/rentd/core/model"
	"github.com/veloway/rentd/core/pricing"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `json:"addr"`
	// StaticDir is served at the root for the map UI.
	StaticDir string `json:"static_dir"`
	// MapsKey is exposed at /config.js for the map UI.
	MapsKey string `json:"maps_key"`
}

// SetDefaults applies sane defaults. The maps key falls back to the
// GOOGLE_MAPS_KEY environment variable.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.StaticDir == "" {
		c.StaticDir = "web"
	}
	if c.MapsKey == "" {
		c.MapsKey = os.Getenv("GOOGLE_MAPS_KEY")
	}
}

// RentalsConfig holds lifecycle parameters.
type RentalsConfig struct {
	// MaxRideMinutes caps ride duration; overlong rentals are settled
	// lazily on the next read.
	MaxRideMinutes int `json:"max_ride_minutes"`
}

// SetDefaults applies the 4-hour default cap.
func (c *RentalsConfig) SetDefaults() {
	if c.MaxRideMinutes == 0 {
		c.MaxRideMinutes = 240
	}
}

// Validate checks mandatory fields.
func (c RentalsConfig) Validate() error {
	if c.MaxRideMinutes < 0 {
		return fmt.Errorf("max_ride_minutes must be positive")
	}
	return nil
}

// PricingConfig maps vehicle type names to their pricing rule.
type PricingConfig map[string]pricing.Rule

// Validate rejects rules for unknown vehicle types and negative rates.
func (c PricingConfig) Validate() error {
	for name, rule := range c {
		if !model.VehicleType(name).Valid() {
			return fmt.Errorf("pricing for unknown vehicle type %q", name)
		}
		if rule.PerMinuteCents < 0 || rule.UnlockCents < 0 {
			return fmt.Errorf("negative pricing for %q", name)
		}
	}
	return nil
}

// Table builds the pricing table, falling back to the built-in rates
// when no rules are configured.
func (c PricingConfig) Table() *pricing.Table {
	if len(c) == 0 {
		return pricing.Default()
	}
	rules := make(map[model.VehicleType]pricing.Rule, len(c))
	for name, rule := range c {
		rules[model.VehicleType(name)] = rule
	}
	return pricing.NewTable(rules)
}

// MetricsConfig selects the observability sinks.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies the default Prometheus listener.
func (c *MetricsConfig) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9090"
	}
}

// FleetSeed describes one vehicle in the seeded fleet.
type FleetSeed struct {
	ID   string  `json:"id"`
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Vehicle converts the seed entry to the domain model.
func (f FleetSeed) Vehicle() model.Vehicle {
	return model.Vehicle{ID: f.ID, Type: model.VehicleType(f.Type), Lat: f.Lat, Lng: f.Lng}
}

// DefaultFleet is the built-in six-vehicle demo fleet.
func DefaultFleet() []FleetSeed {
	return []FleetSeed{
		{ID: "b1", Type: "bike", Lat: 43.81488858304542, Lng: -111.79005227761711},
		{ID: "b2", Type: "e-bike", Lat: 43.8201, Lng: -111.7859},
		{ID: "b3", Type: "scooter", Lat: 43.825, Lng: -111.789},
		{ID: "b4", Type: "snow-bike", Lat: 43.8185, Lng: -111.783},
		{ID: "b5", Type: "bike", Lat: 43.8212, Lng: -111.7871},
		{ID: "b6", Type: "e-bike", Lat: 43.8239, Lng: -111.7842},
	}
}
