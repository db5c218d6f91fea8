/**
 * Bootstrap configuration for the WellMonitor agent
 *
 * Loads process-static settings from environment variables matching
 * .env.wellmonitor. Everything tunable at runtime (camera, OCR, thresholds)
 * lives in the confighub snapshot instead and arrives from the remote
 * configuration source.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds agent bootstrap configuration
type Config struct {
	// Redis configuration (task queue + remote config document)
	RedisURL       string
	ConfigKey      string
	DeviceID       string

	// PostgreSQL configuration
	DatabaseURL string

	// Telemetry upload
	TelemetryURL string
	TelemetryKey string

	// Capture backends
	PrimaryCaptureCommand   string
	SecondaryCaptureCommand string

	// OCR configuration
	TesseractDataPath string
	CloudVisionURL    string
	CloudVisionKey    string

	// Relay control
	RelayCommand string

	// Scheduling
	MonitorInterval       time.Duration
	TelemetryInterval     time.Duration
	ConfigRefreshInterval time.Duration

	// Worker configuration
	QueueConcurrency int

	// Temporary directory for capture files
	TempDir string

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:                getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		ConfigKey:               getEnvOrDefault("CONFIG_KEY", "wellmonitor:config"),
		DeviceID:                getEnvOrDefault("DEVICE_ID", "well-pump-01"),
		DatabaseURL:             getEnvOrDefault("DATABASE_URL", ""),
		TelemetryURL:            getEnvOrDefault("TELEMETRY_URL", ""),
		TelemetryKey:            getEnvOrDefault("TELEMETRY_KEY", ""),
		PrimaryCaptureCommand:   getEnvOrDefault("CAPTURE_COMMAND", "rpicam-still"),
		SecondaryCaptureCommand: getEnvOrDefault("CAPTURE_FALLBACK_COMMAND", "libcamera-still"),
		TesseractDataPath:       getEnvOrDefault("TESSERACT_DATA_PATH", ""),
		CloudVisionURL:          getEnvOrDefault("CLOUD_VISION_URL", ""),
		CloudVisionKey:          getEnvOrDefault("CLOUD_VISION_KEY", ""),
		RelayCommand:            getEnvOrDefault("RELAY_COMMAND", ""),
		MonitorInterval:         getEnvAsDurationOrDefault("MONITOR_INTERVAL", 30*time.Second),
		TelemetryInterval:       getEnvAsDurationOrDefault("TELEMETRY_INTERVAL", 5*time.Minute),
		ConfigRefreshInterval:   getEnvAsDurationOrDefault("CONFIG_REFRESH_INTERVAL", time.Hour),
		QueueConcurrency:        getEnvAsIntOrDefault("QUEUE_CONCURRENCY", 2),
		TempDir:                 getEnvOrDefault("TEMP_DIR", "/tmp/wellmonitor"),
		LogLevel:                getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.DeviceID == "" {
		return fmt.Errorf("DEVICE_ID is required")
	}

	if c.PrimaryCaptureCommand == "" {
		return fmt.Errorf("CAPTURE_COMMAND is required")
	}

	if c.MonitorInterval < 5*time.Second || c.MonitorInterval > time.Hour {
		return fmt.Errorf("MONITOR_INTERVAL must be between 5s and 1h, got %v", c.MonitorInterval)
	}

	if c.TelemetryInterval < time.Minute || c.TelemetryInterval > 24*time.Hour {
		return fmt.Errorf("TELEMETRY_INTERVAL must be between 1m and 24h, got %v", c.TelemetryInterval)
	}

	if c.QueueConcurrency < 1 || c.QueueConcurrency > 16 {
		return fmt.Errorf("QUEUE_CONCURRENCY must be between 1 and 16, got %d", c.QueueConcurrency)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDurationOrDefault gets environment variable as duration or returns default
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
