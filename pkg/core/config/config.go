// Package config loads service configuration: app settings from YAML
// and the tracked-concept registry from HJSON.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"edgarq/pkg/core/xbrl"
)

// Config is the application configuration, read from config/app.yaml.
type Config struct {
	SEC struct {
		UserAgent   string `yaml:"user_agent"`
		RateLimitMS int    `yaml:"rate_limit_ms"`
	} `yaml:"sec"`
	Cache struct {
		Path     string `yaml:"path"`
		TTLHours int    `yaml:"ttl_hours"`
	} `yaml:"cache"`
	Refresh struct {
		Schedule string   `yaml:"schedule"`
		Tickers  []string `yaml:"tickers"`
	} `yaml:"refresh"`
	Derive struct {
		Q3Cumulative *bool `yaml:"q3_cumulative"`
	} `yaml:"derive"`
	ConceptsPath string `yaml:"concepts"`
	ListenAddr   string `yaml:"listen_addr"`
}

// Load reads the YAML config file and fills in defaults for anything
// left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied, for
// running without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.SEC.UserAgent == "" {
		c.SEC.UserAgent = "edgarq/1.0 (contact@example.com)"
	}
	if c.SEC.RateLimitMS == 0 {
		c.SEC.RateLimitMS = 150
	}
	if c.Cache.Path == "" {
		c.Cache.Path = ".cache/edgarq.db"
	}
	if c.Cache.TTLHours == 0 {
		c.Cache.TTLHours = 24
	}
	if c.Refresh.Schedule == "" {
		c.Refresh.Schedule = "0 6 * * *"
	}
	if c.ConceptsPath == "" {
		c.ConceptsPath = "config/concepts.hjson"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
}

// Policy returns the derivation policy. The nine-month window is
// preferred unless the config explicitly turns it off.
func (c *Config) Policy() xbrl.Policy {
	if c.Derive.Q3Cumulative == nil {
		return xbrl.DefaultPolicy
	}
	return xbrl.Policy{Q3Cumulative: *c.Derive.Q3Cumulative}
}

// CacheTTL returns the HTTP cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// RateLimit returns the minimum delay between SEC requests.
func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.SEC.RateLimitMS) * time.Millisecond
}
