package config

import (
	"fmt"
	"os"
)

// Config holds the environment-driven settings for the server.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	// EnableSampleData allows the analytics summary endpoint to
	// backfill demo records for sites with no data. Off by default so
	// reads stay side-effect-free outside demo builds.
	EnableSampleData bool
}

// Current is set by Load and read by the handlers.
var Current *Config

func Load() (*Config, error) {
	cfg := &Config{
		Port:             os.Getenv("PORT"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		EnableSampleData: os.Getenv("ENABLE_SAMPLE_DATA") == "true",
	}

	if cfg.Port == "" {
		cfg.Port = "3000"
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	Current = cfg

	return cfg, nil
}
