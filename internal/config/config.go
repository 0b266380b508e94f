package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"fxreport/internal/logger"
)

// Defaults for the rate source connection.
const (
	DefaultRateSourceURL = "https://api.frankfurter.app"
	DefaultRateTimeout   = 10 * time.Second
	DefaultConcurrency   = 4
)

type Config struct {
	// Historical FX rate source
	RateSourceURL string
	RateTimeout   time.Duration
	Concurrency   int

	// Google Sheets input (optional; CSV files need no credentials)
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		RateSourceURL:        getEnv("FX_RATE_SOURCE_URL", DefaultRateSourceURL),
		GoogleSheetURL:       getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet: getEnv("GOOGLE_SHEET_WORKSHEET", "Invoices"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:            getEnv("LOG_OUTPUT", "stderr"),
	}

	timeoutSecs, err := getEnvInt("FX_RATE_TIMEOUT_SECONDS", int(DefaultRateTimeout/time.Second))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.RateTimeout = time.Duration(timeoutSecs) * time.Second

	config.Concurrency, err = getEnvInt("FX_RATE_CONCURRENCY", DefaultConcurrency)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.RateSourceURL == "" {
		return fmt.Errorf("FX_RATE_SOURCE_URL must not be empty")
	}
	if c.RateTimeout <= 0 {
		return fmt.Errorf("FX_RATE_TIMEOUT_SECONDS must be positive")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("FX_RATE_CONCURRENCY must be positive")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}
