// Package config manages application configuration
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

const envPrefix = "TRADEIMPORT_"

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"

	// Database
	DatabaseURL string

	// Logging
	LogLevel string

	// Import settings
	DefaultLocale  string        // BCP 47 hint used when an adapter has none
	MaxUploadBytes uint64        // accepts "10MB", "512KiB" or a plain byte count
	ImportTimeout  time.Duration // bounds reading and parsing one file

	// Rate limiting
	RateLimit float64       // requests per second per client
	RateBurst int           // bucket size
	RateTTL   time.Duration // idle time before a client's bucket is evicted

	// Telemetry
	Telemetry        bool
	TelemetryBuffer  int
	TelemetryOrigins []string // extra browser origins allowed on the live feed
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENV", "development"),
		DatabaseURL:      getEnv("DATABASE_URL", "tradeimport.db"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", ""),
		MaxUploadBytes:   getBytesEnv("MAX_UPLOAD_BYTES", 10<<20),
		ImportTimeout:    getDurationEnv("IMPORT_TIMEOUT", 30*time.Second),
		RateLimit:        getFloatEnv("RATE_LIMIT", 2),
		RateBurst:        getIntEnv("RATE_BURST", 10),
		RateTTL:          getDurationEnv("RATE_TTL", 10*time.Minute),
		Telemetry:        getBoolEnv("TELEMETRY", true),
		TelemetryBuffer:  getIntEnv("TELEMETRY_BUFFER", 256),
		TelemetryOrigins: getListEnv("TELEMETRY_ORIGINS"),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UploadLimit returns the upload ceiling in human form, e.g. "10 MB"
func (c *Config) UploadLimit() string {
	return humanize.Bytes(c.MaxUploadBytes)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getListEnv splits a comma separated variable, dropping blanks
func getListEnv(key string) []string {
	var list []string
	for _, item := range strings.Split(os.Getenv(envPrefix+key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBytesEnv(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if parsed, err := humanize.ParseBytes(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
