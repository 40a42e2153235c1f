package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the terminal data layer.
// All configuration is loaded from YAML and can be overridden by environment
// variables.
type Config struct {
	Scene      SceneConfig      `yaml:"scene"`
	Data       DataConfig       `yaml:"data"`
	Simulation SimulationConfig `yaml:"simulation"`
	History    HistoryConfig    `yaml:"history"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SceneConfig identifies the terminal scene this instance serves.
type SceneConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DataConfig locates the initial equipment data set.
type DataConfig struct {
	// File is the YAML file of equipment buckets loaded at startup.
	// Empty means start with an empty store.
	File string `yaml:"file"`
}

// SimulationConfig contains operation simulator timing settings.
// Durations are in milliseconds.
type SimulationConfig struct {
	TickIntervalMs   int          `yaml:"tick_interval_ms"`
	SettleDelayMinMs int          `yaml:"settle_delay_min_ms"`
	SettleDelayMaxMs int          `yaml:"settle_delay_max_ms"`
	Jitter           JitterConfig `yaml:"jitter"`
}

// JitterConfig contains random-mutation driver settings.
type JitterConfig struct {
	Enabled              bool    `yaml:"enabled"`
	IntervalMs           int     `yaml:"interval_ms"`
	LevelAmplitude       float64 `yaml:"level_amplitude"`
	TemperatureAmplitude float64 `yaml:"temperature_amplitude"`
	PressureAmplitude    float64 `yaml:"pressure_amplitude"`
}

// HistoryConfig contains journal settings.
type HistoryConfig struct {
	// DSN is the SQLite connection string; ":memory:" by default.
	DSN string `yaml:"dsn"`
	// RetentionHours bounds how far back Prune keeps entries.
	RetentionHours int `yaml:"retention_hours"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable
// overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TERMINAL3D_SECTION_KEY
// For example: TERMINAL3D_DATA_FILE, TERMINAL3D_INFLUXDB_TOKEN
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Scene: SceneConfig{
			ID:       "terminal-001",
			Name:     "Terminal 3D",
			Timezone: "UTC",
		},
		Simulation: SimulationConfig{
			TickIntervalMs:   1000,
			SettleDelayMinMs: 500,
			SettleDelayMaxMs: 2000,
			Jitter: JitterConfig{
				Enabled:              false,
				IntervalMs:           5000,
				LevelAmplitude:       0.01,
				TemperatureAmplitude: 0.5,
				PressureAmplitude:    0.2,
			},
		},
		History: HistoryConfig{
			DSN:            ":memory:",
			RetentionHours: 24,
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			URL:           "http://localhost:8086",
			Org:           "terminal3d",
			Bucket:        "metrics",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables follow the pattern:
// TERMINAL3D_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TERMINAL3D_SCENE_ID"); v != "" {
		cfg.Scene.ID = v
	}
	if v := os.Getenv("TERMINAL3D_DATA_FILE"); v != "" {
		cfg.Data.File = v
	}
	if v := os.Getenv("TERMINAL3D_HISTORY_DSN"); v != "" {
		cfg.History.DSN = v
	}
	if v := os.Getenv("TERMINAL3D_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("TERMINAL3D_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("TERMINAL3D_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TERMINAL3D_SIMULATION_TICK_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.TickIntervalMs = n
		}
	}
	if v := os.Getenv("TERMINAL3D_SIMULATION_JITTER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Simulation.Jitter.Enabled = b
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Scene.ID == "" {
		errs = append(errs, "scene.id is required")
	}
	if c.Simulation.TickIntervalMs <= 0 {
		errs = append(errs, "simulation.tick_interval_ms must be positive")
	}
	if c.Simulation.SettleDelayMinMs <= 0 {
		errs = append(errs, "simulation.settle_delay_min_ms must be positive")
	}
	if c.Simulation.SettleDelayMaxMs < c.Simulation.SettleDelayMinMs {
		errs = append(errs, "simulation.settle_delay_max_ms must be >= settle_delay_min_ms")
	}
	if c.Simulation.Jitter.Enabled && c.Simulation.Jitter.IntervalMs <= 0 {
		errs = append(errs, "simulation.jitter.interval_ms must be positive when jitter is enabled")
	}
	if c.History.DSN == "" {
		errs = append(errs, "history.dsn is required")
	}
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set TERMINAL3D_INFLUXDB_TOKEN)")
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logging.level must be one of debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// TickInterval returns the transfer tick cadence as a Duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Simulation.TickIntervalMs) * time.Millisecond
}

// SettleDelayMin returns the lower valve settle bound as a Duration.
func (c *Config) SettleDelayMin() time.Duration {
	return time.Duration(c.Simulation.SettleDelayMinMs) * time.Millisecond
}

// SettleDelayMax returns the upper valve settle bound as a Duration.
func (c *Config) SettleDelayMax() time.Duration {
	return time.Duration(c.Simulation.SettleDelayMaxMs) * time.Millisecond
}

// JitterInterval returns the jitter pulse cadence as a Duration.
func (c *Config) JitterInterval() time.Duration {
	return time.Duration(c.Simulation.Jitter.IntervalMs) * time.Millisecond
}

// HistoryRetention returns the journal retention window as a Duration.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.History.RetentionHours) * time.Hour
}
