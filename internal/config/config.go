package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Duration wraps time.Duration so it round-trips through TOML and
// environment variables as strings like "4s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds the global ~/.talad/config.toml settings. Environment
// variables override file values.
type Config struct {
	DefaultProfile string `toml:"default_profile" env:"TALAD_PROFILE"`

	// BaseURL is the marketplace REST backend.
	BaseURL string `toml:"base_url" env:"TALAD_BASE_URL"`

	// BlobBaseURL is the object storage endpoint used for media uploads.
	BlobBaseURL string `toml:"blob_base_url" env:"TALAD_BLOB_BASE_URL"`

	// BlobBucket is the bucket name media is uploaded into.
	BlobBucket string `toml:"blob_bucket" env:"TALAD_BLOB_BUCKET"`

	// PollInterval is the chat message polling cadence.
	PollInterval Duration `toml:"poll_interval" env:"TALAD_POLL_INTERVAL"`

	// AuthAttempts bounds identity resolution retries per chat screen.
	AuthAttempts int `toml:"auth_attempts" env:"TALAD_AUTH_ATTEMPTS"`

	// AuthRetryDelay is the fixed delay between resolution attempts.
	AuthRetryDelay Duration `toml:"auth_retry_delay" env:"TALAD_AUTH_RETRY_DELAY"`

	// RequestsPerSecond rate-limits outbound calls to the backend.
	RequestsPerSecond float64 `toml:"requests_per_second" env:"TALAD_REQUESTS_PER_SECOND"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:           "https://api.talad.app",
		BlobBaseURL:       "https://storage.talad.app",
		BlobBucket:        "talad-media",
		PollInterval:      Duration{4 * time.Second},
		AuthAttempts:      3,
		AuthRetryDelay:    Duration{500 * time.Millisecond},
		RequestsPerSecond: 10,
	}
}

// Load reads config from the given path, applying defaults for a missing
// file and environment overrides on top of whatever was read.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
