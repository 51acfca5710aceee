package config

import (
	"os"
	"strconv"
	"time"

	"molview/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Depict   DepictConfig
	Session  SessionConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	OpsPort string
	GinMode string
}

// DatabaseConfig holds the optional dataset catalog connection.
// An empty URL disables the catalog; the viewer then runs memory-only.
type DatabaseConfig struct {
	URL string
}

// UploadConfig holds file intake limits
type UploadConfig struct {
	MaxFileSizeMB int64
}

// DepictConfig holds structure depiction settings
type DepictConfig struct {
	Width       int
	Height      int
	CacheSize   int
	MaxParallel int64
}

// SessionConfig holds browser session settings
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (u UploadConfig) MaxFileSizeBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			OpsPort: getEnvOrDefault("OPS_PORT", "6060"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Upload: UploadConfig{
			MaxFileSizeMB: int64(getEnvIntOrDefault("MAX_UPLOAD_MB", 50)),
		},
		Depict: DepictConfig{
			Width:       getEnvIntOrDefault("DEPICT_WIDTH", 120),
			Height:      getEnvIntOrDefault("DEPICT_HEIGHT", 100),
			CacheSize:   getEnvIntOrDefault("DEPICT_CACHE", 500),
			MaxParallel: int64(getEnvIntOrDefault("DEPICT_PARALLEL", 8)),
		},
		Session: SessionConfig{
			TTL:           getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
			SweepInterval: getEnvDurationOrDefault("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Upload.MaxFileSizeMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Depict.Width <= 0 || config.Depict.Height <= 0 {
		return errors.ConfigInvalid("depiction dimensions must be positive")
	}
	if config.Depict.CacheSize <= 0 {
		return errors.ConfigInvalid("DEPICT_CACHE must be positive")
	}
	if config.Session.TTL <= 0 {
		return errors.ConfigInvalid("SESSION_TTL must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
