// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Line     LineConfig
	Webhook  WebhookConfig
	Avatar   AvatarConfig

	LogLevel string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for probes)
	HealthPort string

	// BaseURL is the externally reachable origin, used for the OAuth
	// redirect URI default.
	BaseURL string
}

// DatabaseConfig holds Postgres connection configuration
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// SessionConfig holds session store configuration
type SessionConfig struct {
	// Backend is "memory" or "redis"
	Backend string
	TTL     time.Duration

	RedisURL      string
	RedisPassword string
	RedisDB       int

	CookieName   string
	CookieSecure bool
}

// LineConfig holds LINE Login channel configuration
type LineConfig struct {
	ChannelID     string
	ChannelSecret string
	RedirectURL   string

	// Endpoint overrides, used by tests; empty means the LINE defaults.
	AuthURL    string
	TokenURL   string
	ProfileURL string
	IssuerURL  string

	// VerifyIDToken enables OIDC ID-token verification on callback.
	VerifyIDToken bool
}

// WebhookConfig holds outbound workflow-webhook configuration
type WebhookConfig struct {
	URL     string
	Secret  string
	Timeout time.Duration
}

// AvatarConfig holds local avatar storage configuration
type AvatarConfig struct {
	Dir     string
	BaseURL string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("MEMBERHUB_HOST", "0.0.0.0"),
			Port:            getEnv("MEMBERHUB_PORT", "8080"),
			ReadTimeout:     getEnvDuration("MEMBERHUB_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("MEMBERHUB_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("MEMBERHUB_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("MEMBERHUB_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("MEMBERHUB_HEALTH_PORT", "9090"),
			BaseURL:         getEnv("MEMBERHUB_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:          getEnv("MEMBERHUB_POSTGRES_URL", ""),
			MaxOpenConns: getEnvInt("MEMBERHUB_POSTGRES_MAX_CONNS", 10),
			MaxIdleConns: getEnvInt("MEMBERHUB_POSTGRES_IDLE_CONNS", 5),
		},
		Session: SessionConfig{
			Backend:       getEnv("MEMBERHUB_SESSION_BACKEND", "memory"),
			TTL:           getEnvDuration("MEMBERHUB_SESSION_TTL", 24*time.Hour),
			RedisURL:      getEnv("MEMBERHUB_REDIS_URL", ""),
			RedisPassword: getEnv("MEMBERHUB_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("MEMBERHUB_REDIS_DB", 0),
			CookieName:    getEnv("MEMBERHUB_SESSION_COOKIE", "memberhub_session"),
			CookieSecure:  getEnvBool("MEMBERHUB_SESSION_COOKIE_SECURE", true),
		},
		Line: LineConfig{
			ChannelID:     getEnv("MEMBERHUB_LINE_CHANNEL_ID", ""),
			ChannelSecret: getEnv("MEMBERHUB_LINE_CHANNEL_SECRET", ""),
			RedirectURL:   getEnv("MEMBERHUB_LINE_REDIRECT_URL", ""),
			VerifyIDToken: getEnvBool("MEMBERHUB_LINE_VERIFY_ID_TOKEN", false),
		},
		Webhook: WebhookConfig{
			URL:     getEnv("MEMBERHUB_WORKFLOW_WEBHOOK_URL", ""),
			Secret:  getEnv("MEMBERHUB_WORKFLOW_WEBHOOK_SECRET", ""),
			Timeout: getEnvDuration("MEMBERHUB_WORKFLOW_WEBHOOK_TIMEOUT", 10*time.Second),
		},
		Avatar: AvatarConfig{
			Dir:     getEnv("MEMBERHUB_AVATAR_DIR", "./data/avatars"),
			BaseURL: getEnv("MEMBERHUB_AVATAR_BASE_URL", "/avatars"),
		},
		LogLevel: getEnv("MEMBERHUB_LOG_LEVEL", "info"),
	}

	if cfg.Line.RedirectURL == "" {
		cfg.Line.RedirectURL = strings.TrimRight(cfg.Server.BaseURL, "/") + "/auth/line/callback"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("redis URL is required for the redis session backend")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be memory or redis)", c.Session.Backend)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	// LINE Login is optional; a channel ID without a secret is a
	// misconfiguration rather than a disabled feature.
	if c.Line.ChannelID != "" && c.Line.ChannelSecret == "" {
		return fmt.Errorf("LINE channel secret is required when a channel ID is set")
	}

	return nil
}

// LineEnabled reports whether LINE Login is configured.
func (c *Config) LineEnabled() bool {
	return c.Line.ChannelID != "" && c.Line.ChannelSecret != ""
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
