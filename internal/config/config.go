// Package config loads server settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the API server. Values come from the
// YAML file when present; environment variables always win. Secrets only
// come from the environment.
type Config struct {
	Port int    `yaml:"port" env:"PORT" env-default:"4000"`
	Env  string `yaml:"env" env:"ENVIRONMENT" env-default:"development"`

	Store   StoreConfig   `yaml:"store"`
	Images  ImageConfig   `yaml:"images"`
	Limiter LimiterConfig `yaml:"limiter"`
}

// StoreConfig selects the entity store.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres.
	Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"STORE_DSN" env-default:"mysoilmate.db"`
	Seed   bool   `yaml:"seed" env:"STORE_SEED" env-default:"false"`
}

// ImageConfig configures plant image storage and delivery.
type ImageConfig struct {
	// Mode is inline (bytes streamed by the API) or signed (signed URLs).
	Mode     string        `yaml:"mode" env:"IMAGE_MODE" env-default:"inline"`
	Dir      string        `yaml:"dir" env:"IMAGE_DIR" env-default:"uploads"`
	MaxBytes int64         `yaml:"max_bytes" env:"IMAGE_MAX_BYTES" env-default:"5242880"`
	URLTTL   time.Duration `yaml:"url_ttl" env:"IMAGE_URL_TTL" env-default:"15m"`
	// SigningKey signs blob URLs in signed mode. Secret - env only.
	SigningKey string `yaml:"-" env:"IMAGE_SIGNING_KEY"`
}

// LimiterConfig configures the per-IP token bucket.
type LimiterConfig struct {
	RPS     float64 `yaml:"rps" env:"LIMITER_RPS" env-default:"2"`
	Burst   int     `yaml:"burst" env:"LIMITER_BURST" env-default:"4"`
	Enabled bool    `yaml:"enabled" env:"LIMITER_ENABLED" env-default:"true"`
}

// Load reads path (if it exists) and applies environment overrides. An
// empty path reads the environment only. The result is not validated;
// callers apply their own overrides first and then call Validate.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return cfg, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.Store.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Images.Mode {
	case "inline":
	case "signed":
		if len(c.Images.SigningKey) < 16 {
			return errors.New("IMAGE_SIGNING_KEY must be at least 16 characters in signed image mode")
		}
	default:
		return fmt.Errorf("unknown image mode %q", c.Images.Mode)
	}
	if c.Images.MaxBytes <= 0 {
		return errors.New("images.max_bytes must be positive")
	}
	return nil
}
