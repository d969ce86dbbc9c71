// Package config reads process configuration from the environment.
// Command-line flags override these values in the CLI.
package config

import (
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"
)

// Gate modes for scheduled builds.
const (
	GateNone    = "none"    // build every scheduled service
	GateFestive = "festive" // build only on sabbaths and major festivals
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds every setting siddur reads from the environment.
type Config struct {
	// RegistryDir is the directory holding the CUE registry package.
	RegistryDir string `env:"SIDDUR_REGISTRY_DIR" envDefault:"registry"`

	// DBPath is the manifest cache database. Empty disables caching.
	DBPath string `env:"SIDDUR_DB_PATH" envDefault:"siddur.db"`

	LogLevel  slog.Level `env:"SIDDUR_LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"SIDDUR_LOG_FORMAT" envDefault:"text"`

	// Timezone decides which civil day "now" falls on.
	Timezone string `env:"SIDDUR_TIMEZONE" envDefault:"UTC"`

	// Schedule is a standard five-field cron expression.
	Schedule string `env:"SIDDUR_SCHEDULE" envDefault:"0 6,14,20 * * *"`

	Gate string `env:"SIDDUR_GATE" envDefault:"none"`

	// MetricsAddr enables the Prometheus endpoint when set.
	MetricsAddr string `env:"SIDDUR_METRICS_ADDR"`

	// WatchRegistry reloads the registry when its files change.
	WatchRegistry bool `env:"SIDDUR_WATCH_REGISTRY" envDefault:"true"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings and the timezone.
func (c Config) Validate() error {
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: want %s or %s", c.LogFormat, LogFormatText, LogFormatJSON)
	}

	switch c.Gate {
	case GateNone, GateFestive:
	default:
		return fmt.Errorf("invalid gate %q: want %s or %s", c.Gate, GateNone, GateFestive)
	}

	if c.RegistryDir == "" {
		return fmt.Errorf("registry directory is required")
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
