// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to components (gateway, session manager, uploaders) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends selectable with STORAGE_BACKEND.
const (
	StorageNone    = "none"
	StorageArchive = "archive"
	StorageGCS     = "gcs"
)

// # Configuration Schema

// Config holds all runtime configuration for the portal server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Content backend collections
	BackendSubjectsURL  string        `env:"BACKEND_SUBJECTS_URL,required,notEmpty"`
	BackendResourcesURL string        `env:"BACKEND_RESOURCES_URL,required,notEmpty"`
	BackendUsersURL     string        `env:"BACKEND_USERS_URL,required,notEmpty"`
	BackendTimeout      time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`

	// Session persistence. Without REDIS_URL sessions live in memory only.
	RedisURL string `env:"REDIS_URL"`

	// Browser sessions
	SessionSecret      string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL         time.Duration `env:"SESSION_TTL"          envDefault:"720h"`
	SessionRestoreWait time.Duration `env:"SESSION_RESTORE_WAIT" envDefault:"3s"`
	DisplayNamePrefix  string        `env:"DISPLAY_NAME_PREFIX"  envDefault:"Dr. "`

	// Watch progress
	ProgressDebounce     time.Duration `env:"PROGRESS_DEBOUNCE"      envDefault:"5s"`
	ProgressWriteTimeout time.Duration `env:"PROGRESS_WRITE_TIMEOUT" envDefault:"10s"`

	// AI study tools. Without AI_ENDPOINT the tools report unavailable.
	AIEndpoint string        `env:"AI_ENDPOINT"`
	AIAPIKey   string        `env:"AI_API_KEY"`
	AITimeout  time.Duration `env:"AI_TIMEOUT" envDefault:"2m"`

	// Object storage for admin uploads
	StorageBackend  string `env:"STORAGE_BACKEND"   envDefault:"none"`
	ArchiveEndpoint string `env:"ARCHIVE_ENDPOINT"  envDefault:"https://s3.us.archive.org"`
	ArchiveDownload string `env:"ARCHIVE_DOWNLOAD"  envDefault:"https://archive.org/download"`
	ArchiveAccess   string `env:"ARCHIVE_ACCESS_KEY"`
	ArchiveSecret   string `env:"ARCHIVE_SECRET_KEY"`
	GCSBucket       string `env:"GCS_BUCKET"`
	GCSPrefix       string `env:"GCS_PREFIX"        envDefault:"lectures"`
	GCSCredentials  string `env:"GCS_CREDENTIALS_FILE"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageNone:
	case StorageArchive:
		if c.ArchiveAccess == "" || c.ArchiveSecret == "" {
			return fmt.Errorf("config: STORAGE_BACKEND=archive requires ARCHIVE_ACCESS_KEY and ARCHIVE_SECRET_KEY")
		}
	case StorageGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("config: STORAGE_BACKEND=gcs requires GCS_BUCKET")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the comma-separated EXTRA_ORIGINS as a list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
