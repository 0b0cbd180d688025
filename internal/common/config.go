// Package common provides shared utilities for InvestFlow
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/investflow/internal/models"
)

// Config holds all configuration for InvestFlow
type Config struct {
	Environment     string        `toml:"environment"`
	DisplayCurrency string        `toml:"display_currency"` // Display label for portfolio totals ("USD", "EUR" or "BRL", default "USD")
	Server          ServerConfig  `toml:"server"`
	Storage         StorageConfig `toml:"storage"`
	Clients         ClientsConfig `toml:"clients"`
	Logging         LoggingConfig `toml:"logging"`
	Auth            AuthConfig    `toml:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the SurrealDB connection settings for the holding
// and user stores.
type StorageConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the per-operation store timeout
func (c *StorageConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Trading212 Trading212Config `toml:"trading212"`
	Gemini     GeminiConfig     `toml:"gemini"`
}

// Trading212Config holds broker API configuration
type Trading212Config struct {
	LiveURL    string `toml:"live_url"`
	DemoURL    string `toml:"demo_url"`
	RateLimit  int    `toml:"rate_limit"`
	Timeout    string `toml:"timeout"`
	MaxRetries int    `toml:"max_retries"`
}

// GetTimeout parses and returns the timeout duration
func (c *Trading212Config) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
	Timeout     string  `toml:"timeout"`
}

// GetTimeout parses and returns the generation timeout
func (c *GeminiConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 60*time.Second)
}

// AuthConfig holds session token and password policy configuration.
type AuthConfig struct {
	JWTSecret         string `toml:"jwt_secret"`
	TokenExpiry       string `toml:"token_expiry"` // duration string, default "24h"
	MinPasswordLength int    `toml:"min_password_length"`
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	return parseDuration(c.TokenExpiry, 24*time.Hour)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:     "development",
		DisplayCurrency: "USD",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Address:   "ws://localhost:8000/rpc",
			Namespace: "investflow",
			Database:  "investflow",
			Username:  "root",
			Password:  "root",
			Timeout:   "10s",
		},
		Clients: ClientsConfig{
			Trading212: Trading212Config{
				LiveURL:    "https://live.trading212.com/api/v0",
				DemoURL:    "https://demo.trading212.com/api/v0",
				RateLimit:  1,
				Timeout:    "30s",
				MaxRetries: 2,
			},
			Gemini: GeminiConfig{
				Model:       "gemini-3-flash-preview",
				Temperature: 0.7,
				Timeout:     "60s",
			},
		},
		Auth: AuthConfig{
			JWTSecret:         "dev-jwt-secret-change-in-production",
			TokenExpiry:       "24h",
			MinPasswordLength: 6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory, if present, is loaded into the
// process environment first; variables already set take precedence.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	applyEnvOverrides(config)

	config.DisplayCurrency = string(models.ParseCurrency(config.DisplayCurrency))

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("INVESTFLOW_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("INVESTFLOW_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("INVESTFLOW_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("INVESTFLOW_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if dc := os.Getenv("INVESTFLOW_DISPLAY_CURRENCY"); dc != "" {
		config.DisplayCurrency = strings.ToUpper(dc)
	}

	// Storage overrides
	if v := os.Getenv("INVESTFLOW_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("INVESTFLOW_STORAGE_USERNAME"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("INVESTFLOW_STORAGE_PASSWORD"); v != "" {
		config.Storage.Password = v
	}

	// Auth overrides
	if v := os.Getenv("INVESTFLOW_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("INVESTFLOW_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}

	if v := os.Getenv("INVESTFLOW_TRADING212_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			config.Clients.Trading212.MaxRetries = n
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// Currency returns the configured display currency.
func (c *Config) Currency() models.Currency {
	return models.ParseCurrency(c.DisplayCurrency)
}

// ResolveAPIKey resolves an API key from the environment, falling back to
// the configured value.
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":     {"GEMINI_API_KEY", "INVESTFLOW_GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"},
		"trading212_api_key": {"TRADING212_API_KEY", "INVESTFLOW_TRADING212_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// ValidateRequired returns the names of settings that are missing or still
// at their development defaults. The server logs them at startup.
func (c *Config) ValidateRequired() []string {
	var missing []string
	if c.Clients.Gemini.APIKey == "" {
		missing = append(missing, "clients.gemini.api_key")
	}
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "dev-jwt-secret-change-in-production" {
		missing = append(missing, "auth.jwt_secret")
	}
	if c.Storage.Address == "" {
		missing = append(missing, "storage.address")
	}
	return missing
}
