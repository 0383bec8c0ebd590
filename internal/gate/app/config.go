package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer     string // Required: issuer claim for minted access tokens
	AdminToken string // Optional: token required for the client registry API

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./codegate.db)
	ChannelKeyFile       string        // Optional: path to channel key file (default: ./channel.key)
	MaxMessageAge        time.Duration // Optional: verification code validity window (default: 5m)
	AccessTokenTTL       time.Duration // Optional: minted access token lifetime (default: 15m)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               os.Getenv("CODEGATE_ISSUER"),
		AdminToken:           os.Getenv("CODEGATE_ADMIN_TOKEN"), // Optional: if unset, admin API is disabled
		DatabaseFile:         getEnvOrDefault("CODEGATE_DATABASE_FILE", "codegate.db"),
		ChannelKeyFile:       getEnvOrDefault("CODEGATE_CHANNEL_KEY_FILE", "channel.key"),
		MaxMessageAge:        getEnvDurationOrDefault("CODEGATE_MAX_MESSAGE_AGE", 5*time.Minute),
		AccessTokenTTL:       getEnvDurationOrDefault("CODEGATE_ACCESS_TOKEN_TTL", 15*time.Minute),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.Issuer == "" {
		cfg.Issuer = "codegate"
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
