// Package config loads and validates the engine's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"internwatch/internal/retry"
)

const defaultFeedURL = "https://raw.githubusercontent.com/SimplifyJobs/Summer2026-Internships/dev/.github/scripts/listings.json"

type Config struct {
	App struct {
		Port     int    `yaml:"port"`
		DataDir  string `yaml:"data_dir"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Feed struct {
		URL string `yaml:"url"`
	} `yaml:"feed"`

	Retry struct {
		MaxAttempts       int     `yaml:"max_attempts"`
		InitialDelayMs    int     `yaml:"initial_delay_ms"`
		BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	} `yaml:"retry"`

	Delivery struct {
		SendsPerSecond float64 `yaml:"sends_per_second"`
	} `yaml:"delivery"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.App.Port = 8090
	cfg.App.DataDir = "data"
	cfg.App.LogLevel = "info"
	cfg.Feed.URL = defaultFeedURL
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.InitialDelayMs = 1000
	cfg.Retry.BackoffMultiplier = 2.0
	cfg.Delivery.SendsPerSecond = 1.0
	return cfg
}

// Load reads path, falling back to defaults when the file does not exist.
// Zero-valued fields in the file inherit their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.App.Port == 0 {
		cfg.App.Port = def.App.Port
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = def.App.DataDir
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = def.App.LogLevel
	}
	if cfg.Feed.URL == "" {
		cfg.Feed.URL = def.Feed.URL
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if cfg.Retry.InitialDelayMs == 0 {
		cfg.Retry.InitialDelayMs = def.Retry.InitialDelayMs
	}
	if cfg.Retry.BackoffMultiplier == 0 {
		cfg.Retry.BackoffMultiplier = def.Retry.BackoffMultiplier
	}
	if cfg.Delivery.SendsPerSecond == 0 {
		cfg.Delivery.SendsPerSecond = def.Delivery.SendsPerSecond
	}
}

// Validate checks ranges, collecting every violation into one error.
func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	if cfg.Feed.URL == "" {
		errs = append(errs, "feed.url is required")
	}
	if cfg.Retry.MaxAttempts < 1 {
		errs = append(errs, "retry.max_attempts must be at least 1")
	}
	if cfg.Retry.InitialDelayMs < 0 {
		errs = append(errs, "retry.initial_delay_ms must be non-negative")
	}
	if cfg.Retry.BackoffMultiplier < 1.0 {
		errs = append(errs, "retry.backoff_multiplier must be >= 1.0")
	}
	if cfg.Delivery.SendsPerSecond <= 0 {
		errs = append(errs, "delivery.sends_per_second must be > 0")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

// RetryPolicy converts the retry block into the executor's policy.
func (c Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  c.Retry.MaxAttempts,
		InitialDelay: time.Duration(c.Retry.InitialDelayMs) * time.Millisecond,
		Multiplier:   c.Retry.BackoffMultiplier,
	}
}
