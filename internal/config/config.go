package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"koafrail/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Model    ModelConfig
	Database DatabaseConfig
	Batch    BatchConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// ModelConfig holds model artifact settings
type ModelConfig struct {
	File string // empty means the embedded default artifact
}

// DatabaseConfig holds settings for the optional audit database.
// An empty URL disables the audit log; every other surface keeps working.
type DatabaseConfig struct {
	URL             string
	Enabled         bool
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// BatchConfig holds batch scoring settings
type BatchConfig struct {
	Workers int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   loadServerConfig(),
		Model:    loadModelConfig(),
		Database: loadDatabaseConfig(),
		Batch:    loadBatchConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadModelConfig() ModelConfig {
	return ModelConfig{
		File: getEnvOrDefault("MODEL_FILE", ""),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	url := os.Getenv("DATABASE_URL")

	return DatabaseConfig{
		URL:             url,
		Enabled:         url != "",
		MaxOpenConns:    getEnvIntOrDefault("DB_MAX_CONNS", 10),
		ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_LIFETIME", 30*time.Minute),
	}
}

func loadBatchConfig() BatchConfig {
	return BatchConfig{
		Workers: getEnvIntOrDefault("BATCH_WORKERS", 8),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Batch.Workers < 1 {
		return errors.ConfigInvalid("BATCH_WORKERS must be at least 1")
	}
	if config.Model.File != "" {
		if _, err := os.Stat(config.Model.File); err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("MODEL_FILE not readable: %s", config.Model.File))
		}
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
