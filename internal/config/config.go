// Package config provides configuration for ugv-cam commands.
// Values come from the environment (optionally a .env file), with
// command-line flags layered on top by the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything needed to wire an Agent and its front-ends.
type Config struct {
	// UGVURL is the base URL of the chassis REST API.
	UGVURL string `env:"UGV_URL" envDefault:"http://192.168.4.1"`

	// CameraURL is the base URL of the camera's MJPEG stream.
	CameraURL string `env:"CAM_URL" envDefault:"http://192.168.4.6"`

	// LogDir is the root directory for session logs.
	// Defaults to ~/.ugv-cam when empty.
	LogDir string `env:"UGV_LOG_DIR"`

	// LogLevel controls structured log verbosity (debug/info/warn/error).
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// WebAddr is the listen address of the teleop dashboard.
	WebAddr string `env:"WEB_ADDR" envDefault:":8080"`
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (Config, error) {
	// Missing .env is fine; env vars alone are a complete configuration.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.LogDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.LogDir = filepath.Join(home, ".ugv-cam")
	}

	return cfg, nil
}
