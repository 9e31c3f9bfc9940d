// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration of a logging session.
type Config struct {
	// FlushInterval is how often the background worker drains the
	// pending queue. Defaults to 5s.
	FlushInterval Duration `yaml:"flush_interval"`

	// BatchSize caps how many operations one flush submits to the
	// backend. Defaults to 1000.
	BatchSize int `yaml:"batch_size"`

	// MaxQueueSize bounds the pending queue; producers block when it
	// is full. Zero (the default) means unbounded.
	MaxQueueSize int `yaml:"max_queue_size"`

	// Backoff bounds the retry delays after a lost connection.
	Backoff Backoff `yaml:"backoff"`

	// Journal configures crash durability of the pending queue.
	// Disabled when no path is set.
	Journal Journal `yaml:"journal"`
}

// Backoff is the retry delay ladder: the first retry waits Initial,
// each consecutive failure doubles the wait up to Max.
type Backoff struct {
	// Initial defaults to 2s.
	Initial Duration `yaml:"initial"`
	// Max defaults to 2m.
	Max Duration `yaml:"max"`
}

// Journal configures the on-disk operation log.
type Journal struct {
	// Path is the journal file location. Empty disables journaling.
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		FlushInterval: Duration(5 * time.Second),
		BatchSize:     1000,
		Backoff: Backoff{
			Initial: Duration(2 * time.Second),
			Max:     Duration(2 * time.Minute),
		},
	}
}

// Load reads a configuration file, filling unset fields with
// defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := Default()
	if c.FlushInterval == 0 {
		c.FlushInterval = defaults.FlushInterval
	}
	if c.BatchSize == 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.Backoff.Initial == 0 {
		c.Backoff.Initial = defaults.Backoff.Initial
	}
	if c.Backoff.Max == 0 {
		c.Backoff.Max = defaults.Backoff.Max
	}
}

// Validate rejects configurations the worker cannot run with.
func (c *Config) Validate() error {
	if c.FlushInterval < 0 {
		return fmt.Errorf("flush_interval must not be negative, got %s", time.Duration(c.FlushInterval))
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", c.BatchSize)
	}
	if c.Backoff.Initial <= 0 {
		return fmt.Errorf("backoff.initial must be positive, got %s", time.Duration(c.Backoff.Initial))
	}
	if c.Backoff.Max < c.Backoff.Initial {
		return fmt.Errorf("backoff.max (%s) must not be below backoff.initial (%s)",
			time.Duration(c.Backoff.Max), time.Duration(c.Backoff.Initial))
	}
	if c.MaxQueueSize < 0 {
		return fmt.Errorf("max_queue_size must not be negative, got %d", c.MaxQueueSize)
	}
	if c.MaxQueueSize > 0 && c.MaxQueueSize < c.BatchSize {
		return fmt.Errorf("max_queue_size (%d) must not be below batch_size (%d)", c.MaxQueueSize, c.BatchSize)
	}
	return nil
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
