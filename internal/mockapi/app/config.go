package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	JWTSecret     string        // Optional: HS256 secret for access tokens (default: random per process)
	PaymentSecret string        // Optional: sandbox gateway signing secret (default: random per process)
	PaymentKeyID  string        // Optional: publishable gateway key handed to clients (default: rzp_test_mock)
	Currency      string        // Optional: order currency (default: INR)
	Pepper        string        // Optional: password pepper
	AccessTTL     time.Duration // Access token lifetime (default: 15m)
	RefreshTTL    time.Duration // Refresh token lifetime (default: 7d)
	Seed          bool          // Load demo users and courses at startup (default: true)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		JWTSecret:     os.Getenv("MOCKAPI_JWT_SECRET"),
		PaymentSecret: os.Getenv("MOCKAPI_PAYMENT_SECRET"),
		PaymentKeyID:  getEnvOrDefault("MOCKAPI_PAYMENT_KEY_ID", "rzp_test_mock"),
		Currency:      getEnvOrDefault("MOCKAPI_CURRENCY", "INR"),
		Pepper:        os.Getenv("MOCKAPI_PEPPER"),
		AccessTTL:     getEnvDurationOrDefault("MOCKAPI_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:    getEnvDurationOrDefault("MOCKAPI_REFRESH_TTL", 7*24*time.Hour),
		Seed:          getEnvBoolOrDefault("MOCKAPI_SEED", true),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
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

	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
