// Package config loads runtime configuration from the environment with an
// optional YAML overlay for deployments that prefer a file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultUserAgent identifies us to SEC EDGAR, which rejects anonymous
// clients. Deployments should override it with a real contact address.
const DefaultUserAgent = "OpeningBell/1.0 (contact@openingbell.dev)"

// Config carries every tunable of the processing pipeline.
type Config struct {
	DatabaseURL      string
	EdgarUserAgent   string
	HTTPTimeout      time.Duration
	SweepParallelism int
	LogLevel         string
}

// fileConfig is the YAML overlay shape. Durations are strings so the file
// can say "30s" rather than nanosecond counts.
type fileConfig struct {
	DatabaseURL      string `yaml:"database_url"`
	EdgarUserAgent   string `yaml:"edgar_user_agent"`
	HTTPTimeout      string `yaml:"http_timeout"`
	SweepParallelism int    `yaml:"sweep_parallelism"`
	LogLevel         string `yaml:"log_level"`
}

// Load builds the config from environment variables, then overlays the YAML
// file named by OPENING_BELL_CONFIG when set. File values win over env.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		EdgarUserAgent:   envOr("EDGAR_USER_AGENT", DefaultUserAgent),
		HTTPTimeout:      30 * time.Second,
		SweepParallelism: 4,
		LogLevel:         envOr("LOG_LEVEL", "info"),
	}

	if raw := os.Getenv("EDGAR_HTTP_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse EDGAR_HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if raw := os.Getenv("SWEEP_PARALLELISM"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse SWEEP_PARALLELISM: %w", err)
		}
		cfg.SweepParallelism = n
	}

	if path := os.Getenv("OPENING_BELL_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SweepParallelism < 1 {
		cfg.SweepParallelism = 1
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var overlay fileConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if overlay.DatabaseURL != "" {
		c.DatabaseURL = overlay.DatabaseURL
	}
	if overlay.EdgarUserAgent != "" {
		c.EdgarUserAgent = overlay.EdgarUserAgent
	}
	if overlay.HTTPTimeout != "" {
		d, err := time.ParseDuration(overlay.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("parse http_timeout in %s: %w", path, err)
		}
		c.HTTPTimeout = d
	}
	if overlay.SweepParallelism != 0 {
		c.SweepParallelism = overlay.SweepParallelism
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
