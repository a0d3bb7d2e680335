package config

import (
	"os"
	"time"
)

// Config holds all configuration for the ledger
type Config struct {
	ServiceName string
	DBDriver    string
	DBDSN       string
	BusyTimeout time.Duration
	LogLevel    string
	MetricsFile string
	Currency    string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "cardledger"),
		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DBDSN:       getEnv("DB_DSN", "inventory.db"),
		BusyTimeout: getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second),
		LogLevel:    getEnv("LOG_LEVEL", "warn"),
		MetricsFile: getEnv("METRICS_FILE", ""),
		Currency:    getEnv("CURRENCY", "USD"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}
