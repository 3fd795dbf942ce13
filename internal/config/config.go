package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	CORS       CORSConfig
	Portfolio  PortfolioConfig
	MarketData MarketDataConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// PortfolioConfig holds the currency settings the valuation engine runs with.
// The system supports exactly two currencies: the home currency everything is
// reported in and one foreign trading currency.
type PortfolioConfig struct {
	HomeCurrency    string
	ForeignCurrency string

	// FallbackFxRate is used when no exchange rate observation exists on or
	// before a valuation date. Documented default rather than a failure.
	FallbackFxRate float64
}

// MarketDataConfig holds the quote provider settings for the price sync job.
type MarketDataConfig struct {
	BaseURL string
	FxPair  string

	// SyncSchedule is a cron expression; default runs weekday evenings after
	// market close.
	SyncSchedule string

	// FernetKey encrypts the provider API token at rest. Empty disables the
	// authenticated provider endpoints.
	FernetKey string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	fallbackRate, err := strconv.ParseFloat(getEnv("FALLBACK_FX_RATE", "0.9"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FALLBACK_FX_RATE: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/advisory.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: strings.Split(
				getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost"),
				",",
			),
		},
		Portfolio: PortfolioConfig{
			HomeCurrency:    getEnv("HOME_CURRENCY", "EUR"),
			ForeignCurrency: getEnv("FOREIGN_CURRENCY", "USD"),
			FallbackFxRate:  fallbackRate,
		},
		MarketData: MarketDataConfig{
			BaseURL:      getEnv("MARKETDATA_BASE_URL", "https://query1.finance.yahoo.com"),
			FxPair:       getEnv("MARKETDATA_FX_PAIR", "USDEUR=X"),
			SyncSchedule: getEnv("MARKETDATA_SYNC_SCHEDULE", "0 18 * * 1-5"),
			FernetKey:    getEnv("MARKETDATA_FERNET_KEY", ""),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
