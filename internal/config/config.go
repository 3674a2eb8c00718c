// Package config loads and merges the simulator's typed configuration.
//
// The main config file is YAML. Loading decodes into a pointer-field
// overlay and merges it field by field over the documented defaults:
// missing keys keep their defaults, unknown keys are ignored, and merging
// recurses only into the known nested sections (sensor noise, physics),
// never into arbitrary structures.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Guinness96/drone-sim/core"
)

// Config is the fully resolved simulator configuration.
type Config struct {
	// SimulationSpeed is the pacing multiplier; each tick sleeps for
	// 1/SimulationSpeed seconds.
	SimulationSpeed float64

	// APIURL is the base URL of the flight-logging ingestion API.
	APIURL string

	// WaypointFile optionally points at a JSON waypoint list that
	// overrides the default route.
	WaypointFile string

	SensorNoise core.NoiseLevels
	Physics     PhysicsConfig

	Logging LoggingConfig
}

// PhysicsConfig is the physics section of the config file.
type PhysicsConfig struct {
	Params core.PhysicsParams

	// EnablePhysics selects the kinematic engine; false selects bypass
	// navigation, where waypoints are visited one per tick with no
	// motion integration.
	EnablePhysics bool
}

// LoggingConfig mirrors the logging package's config surface.
type LoggingConfig struct {
	Level  string
	Format string
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		SimulationSpeed: 1.0,
		APIURL:          "http://localhost:5000",
		SensorNoise:     core.DefaultNoiseLevels(),
		Physics: PhysicsConfig{
			Params:        core.DefaultPhysicsParams(),
			EnablePhysics: true,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// overlay mirrors the YAML file shape. Pointer fields distinguish "absent"
// from legitimate zero values such as inertia_factor: 0.
type overlay struct {
	SimulationSpeed *float64      `yaml:"simulation_speed"`
	APIURL          *string       `yaml:"api_url"`
	WaypointFile    *string       `yaml:"waypoint_file"`
	SensorNoise     noiseOverlay  `yaml:"sensor_noise_levels"`
	Physics         physOverlay   `yaml:"physics"`
	Logging         logOverlay    `yaml:"logging"`
}

type noiseOverlay struct {
	Temperature *float64 `yaml:"temperature"`
	Humidity    *float64 `yaml:"humidity"`
	AirQuality  *float64 `yaml:"air_quality"`
	Altitude    *float64 `yaml:"altitude"`
}

type physOverlay struct {
	MaxVelocity     *float64 `yaml:"max_velocity"`
	MaxAcceleration *float64 `yaml:"max_acceleration"`
	MaxDeceleration *float64 `yaml:"max_deceleration"`
	InertiaFactor   *float64 `yaml:"inertia_factor"`
	TurnRate        *float64 `yaml:"turn_rate"`
	EnablePhysics   *bool    `yaml:"enable_physics"`
}

type logOverlay struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

// Load reads the YAML file at path and merges it over the defaults. An
// empty path returns the defaults unchanged. Unreadable files and invalid
// YAML are errors; a valid file with unknown keys is not.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}

	var o overlay
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg.apply(o)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// apply merges the overlay over cfg, one field at a time.
func (c *Config) apply(o overlay) {
	setFloat(&c.SimulationSpeed, o.SimulationSpeed)
	setString(&c.APIURL, o.APIURL)
	setString(&c.WaypointFile, o.WaypointFile)

	setFloat(&c.SensorNoise.Temperature, o.SensorNoise.Temperature)
	setFloat(&c.SensorNoise.Humidity, o.SensorNoise.Humidity)
	setFloat(&c.SensorNoise.AirQuality, o.SensorNoise.AirQuality)
	setFloat(&c.SensorNoise.Altitude, o.SensorNoise.Altitude)

	setFloat(&c.Physics.Params.MaxVelocity, o.Physics.MaxVelocity)
	setFloat(&c.Physics.Params.MaxAcceleration, o.Physics.MaxAcceleration)
	setFloat(&c.Physics.Params.MaxDeceleration, o.Physics.MaxDeceleration)
	setFloat(&c.Physics.Params.InertiaFactor, o.Physics.InertiaFactor)
	setFloat(&c.Physics.Params.TurnRate, o.Physics.TurnRate)
	setBool(&c.Physics.EnablePhysics, o.Physics.EnablePhysics)

	setString(&c.Logging.Level, o.Logging.Level)
	setString(&c.Logging.Format, o.Logging.Format)
}

// Validate rejects values the simulation cannot run with.
func (c Config) Validate() error {
	if c.SimulationSpeed <= 0 {
		return fmt.Errorf("simulation_speed %v must be > 0", c.SimulationSpeed)
	}
	if c.SensorNoise.Temperature < 0 || c.SensorNoise.Humidity < 0 ||
		c.SensorNoise.AirQuality < 0 || c.SensorNoise.Altitude < 0 {
		return fmt.Errorf("sensor_noise_levels must be non-negative")
	}
	if c.Physics.EnablePhysics {
		if err := c.Physics.Params.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
