// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables. Secret material
// is loaded once at startup and the struct is immutable afterwards.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Token signing
	SecretKey              string `env:"SECRET_KEY,required"`
	JWTAlgorithm           string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	AccessTokenTTLMinutes  int    `env:"ACCESS_TOKEN_TTL_MINUTES" envDefault:"30"`
	RefreshTokenTTLDays    int    `env:"REFRESH_TOKEN_TTL_DAYS" envDefault:"7"`

	// Service key settings
	APIKeyEncryptionKey   string `env:"API_KEY_ENCRYPTION_KEY,required"`
	APIKeyPrefix          string `env:"API_KEY_PREFIX" envDefault:"sbk_"`
	APIKeyDefaultTTLDays  int    `env:"API_KEY_DEFAULT_TTL_DAYS" envDefault:"90"`
	APIKeyMinTTLDays      int    `env:"API_KEY_MIN_TTL_DAYS" envDefault:"1"`
	APIKeyMaxTTLDays      int    `env:"API_KEY_MAX_TTL_DAYS" envDefault:"365"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitEnabled   bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitPerMinute int  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// AccessTokenTTL returns the access token lifetime as a duration.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime as a duration.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or TTL bounds are
// inconsistent.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIKeyMinTTLDays < 1 {
		return fmt.Errorf("API_KEY_MIN_TTL_DAYS must be at least 1, got %d", c.APIKeyMinTTLDays)
	}
	if c.APIKeyMaxTTLDays < c.APIKeyMinTTLDays {
		return fmt.Errorf("API_KEY_MAX_TTL_DAYS (%d) must not be below API_KEY_MIN_TTL_DAYS (%d)",
			c.APIKeyMaxTTLDays, c.APIKeyMinTTLDays)
	}
	if c.APIKeyDefaultTTLDays < c.APIKeyMinTTLDays || c.APIKeyDefaultTTLDays > c.APIKeyMaxTTLDays {
		return fmt.Errorf("API_KEY_DEFAULT_TTL_DAYS (%d) must be within [%d, %d]",
			c.APIKeyDefaultTTLDays, c.APIKeyMinTTLDays, c.APIKeyMaxTTLDays)
	}
	return nil
}
