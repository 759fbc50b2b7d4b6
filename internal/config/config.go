package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Provider  ProviderConfig
	Refresh   RefreshConfig
	Dashboard DashboardConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration.
// An empty Path disables the fetch history recorder.
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// ProviderConfig holds the market-data provider settings
type ProviderConfig struct {
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	VsCurrency   string
	Timeout      time.Duration
}

// RefreshConfig holds the recurring refresh schedule
type RefreshConfig struct {
	Schedule     string // cron spec, e.g. "@every 24h"
	FetchTimeout time.Duration
	OnStart      bool
}

// DashboardConfig holds the initial dashboard selection and the coin catalog
type DashboardConfig struct {
	DefaultAsset     string
	DefaultRangeDays int
	CoinsFile        string
	Coins            []model.Coin
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnvAllowEmpty("DB_PATH", "./data/dashboard.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Provider: ProviderConfig{
			BaseURL:      strings.TrimRight(getEnv("PROVIDER_BASE_URL", "https://api.coingecko.com/api/v3"), "/"),
			APIKeyHeader: getEnv("PROVIDER_API_KEY_HEADER", "x-cg-demo-api-key"),
			VsCurrency:   getEnv("PROVIDER_VS_CURRENCY", "usd"),
		},
		Refresh: RefreshConfig{
			Schedule: getEnv("REFRESH_SCHEDULE", "@every 24h"),
		},
		Dashboard: DashboardConfig{
			DefaultAsset: getEnv("DEFAULT_ASSET", "bitcoin"),
			CoinsFile:    getEnv("COINS_FILE", ""),
		},
	}

	var err error
	if config.Provider.Timeout, err = getEnvDuration("PROVIDER_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if config.Refresh.FetchTimeout, err = getEnvDuration("FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if config.Refresh.OnStart, err = getEnvBool("REFRESH_ON_START", true); err != nil {
		return nil, err
	}
	if config.Dashboard.DefaultRangeDays, err = getEnvInt("DEFAULT_RANGE_DAYS", 30); err != nil {
		return nil, err
	}

	config.Provider.APIKey, err = resolveAPIKey(
		os.Getenv("PROVIDER_API_KEY"),
		os.Getenv("PROVIDER_API_KEY_ENCRYPTED"),
		os.Getenv("SECRET_KEY"),
	)
	if err != nil {
		return nil, err
	}

	config.Dashboard.Coins, err = LoadCoins(config.Dashboard.CoinsFile)
	if err != nil {
		return nil, err
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Dashboard.DefaultRangeDays <= 0 {
		return fmt.Errorf("DEFAULT_RANGE_DAYS must be positive")
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("PROVIDER_BASE_URL is required")
	}
	found := false
	for _, coin := range c.Dashboard.Coins {
		if coin.ID == c.Dashboard.DefaultAsset {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("DEFAULT_ASSET %q is not in the coin catalog", c.Dashboard.DefaultAsset)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAllowEmpty is like getEnv but keeps a variable that is set to the empty string.
func getEnvAllowEmpty(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
