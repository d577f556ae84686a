// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	// Remote source settings
	BaseURL     string
	FileExt     string
	HTTPTimeout time.Duration

	// Fetch settings
	FetchWorkers  int
	RetryAttempts int
	RetryDelay    time.Duration

	// Storage areas
	DataDir string

	// Modeling evaluation step
	RunEval bool

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables, reading an
// optional .env file first. A missing .env file is not an error.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Default values
		BaseURL:       getEnv("DEPRISK_BASE_URL", "https://wwwn.cdc.gov/Nchs/Nhanes/2021-2022"),
		FileExt:       getEnv("DEPRISK_FILE_EXT", ".sas7bdat"),
		HTTPTimeout:   time.Duration(getEnvAsInt("HTTP_TIMEOUT_MS", 60000)) * time.Millisecond,
		FetchWorkers:  getEnvAsInt("FETCH_WORKERS", 3),
		RetryAttempts: getEnvAsInt("RETRY_ATTEMPTS", 3),
		RetryDelay:    time.Duration(getEnvAsInt("RETRY_DELAY_MS", 1000)) * time.Millisecond,
		DataDir:       getEnv("DEPRISK_DATA_DIR", "data"),
		RunEval:       getEnvAsBool("RUN_EVAL", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("source base URL is required")
	}

	if c.DataDir == "" {
		return errors.New("data directory is required")
	}

	if c.FetchWorkers <= 0 {
		return errors.New("fetch worker count must be positive")
	}

	if c.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}

	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP timeout must be positive")
	}

	return nil
}

// RawDir returns the storage area for per-module extracts and the merged table.
func (c *Config) RawDir() string {
	return filepath.Join(c.DataDir, "raw")
}

// CleanDir returns the storage area for the cleaned and model-ready tables.
func (c *Config) CleanDir() string {
	return filepath.Join(c.DataDir, "clean")
}

// ExternalDir returns the storage area for externally sourced reference tables.
func (c *Config) ExternalDir() string {
	return filepath.Join(c.DataDir, "external")
}

// SeqnDemoDir returns the storage area for the demographic re-attachment outputs.
func (c *Config) SeqnDemoDir() string {
	return filepath.Join(c.DataDir, "seqn_demo")
}

// AuditPath returns the location of the SQLite audit store.
func (c *Config) AuditPath() string {
	return filepath.Join(c.DataDir, "audit.db")
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
