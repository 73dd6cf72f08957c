// Package config loads the helper's optional webcard.yaml: a poll-interval
// override, a debug logging gate, and the optional secondary bridge
// transport's listen settings.
//
// Grounded on the teacher's loadProject in internal/daemon/project.go: read
// the file, unmarshal with yaml.v3, fall back to defaults on a missing
// file, and apply zero-value defaults afterward.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Bridge holds the optional secondary WebSocket/SSE transport settings.
type Bridge struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Config is the parsed contents of webcard.yaml.
type Config struct {
	// PollIntervalMillis overrides the reconciler's list-phase gate
	// (spec.md §4.4's ~1-second tick); zero means use the default.
	PollIntervalMillis int `yaml:"pollIntervalMillis"`

	// Debug enables the supplemented PC/SC error-code logging described in
	// SPEC_FULL.md's "supplemented features."
	Debug bool `yaml:"debug"`

	Bridge Bridge `yaml:"bridge"`
}

// DefaultPollInterval is used when the config omits pollIntervalMillis or
// the file is absent entirely.
const DefaultPollInterval = time.Second

// PollInterval returns the configured poll interval, or DefaultPollInterval
// if unset.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMillis <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

// Load reads path and parses it as a Config. A missing file is not an
// error: Load returns the zero Config (all defaults) so an unconfigured
// helper still runs.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}
