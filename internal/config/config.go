// Package config loads server configuration from EXAMTRAINING_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the examtraining server.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Sessions SessionsConfig
	Mail     MailConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string
	Port int

	// PublicURL is the web client address used in mailed links.
	PublicURL string

	// CORSOrigins lists allowed origins; "*" allows all.
	CORSOrigins []string
}

// StorageConfig selects the document database.
type StorageConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend     string
	SQLitePath  string
	PostgresDSN string
}

// SessionsConfig selects where server-hosted training state lives.
type SessionsConfig struct {
	// Backend is "sqlite" (the document database file), "redis" or "memory".
	Backend     string
	RedisURL    string
	RedisPrefix string
	TTL         time.Duration
}

// MailConfig holds SMTP and delivery worker configuration. An empty
// SMTPHost logs mail instead of sending it.
type MailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
	Interval     time.Duration
	MaxAttempts  int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level slog.Level
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("EXAMTRAINING_HOST", "0.0.0.0"),
			Port:        getEnvAsInt("EXAMTRAINING_PORT", 8080),
			PublicURL:   getEnv("EXAMTRAINING_PUBLIC_URL", "https://examtraining.online"),
			CORSOrigins: getEnvAsList("EXAMTRAINING_CORS_ORIGINS", []string{"*"}),
		},
		Storage: StorageConfig{
			Backend:     getEnv("EXAMTRAINING_STORAGE", "sqlite"),
			SQLitePath:  getEnv("EXAMTRAINING_DB", ""),
			PostgresDSN: getEnv("EXAMTRAINING_POSTGRES_DSN", ""),
		},
		Sessions: SessionsConfig{
			Backend:     getEnv("EXAMTRAINING_SESSIONS", "sqlite"),
			RedisURL:    getEnv("EXAMTRAINING_REDIS_URL", "redis://localhost:6379/0"),
			RedisPrefix: getEnv("EXAMTRAINING_REDIS_PREFIX", "examtraining:"),
			TTL:         getEnvAsDuration("EXAMTRAINING_SESSION_TTL", 30*24*time.Hour),
		},
		Mail: MailConfig{
			SMTPHost:     getEnv("EXAMTRAINING_SMTP_HOST", ""),
			SMTPPort:     getEnvAsInt("EXAMTRAINING_SMTP_PORT", 587),
			SMTPUsername: getEnv("EXAMTRAINING_SMTP_USERNAME", ""),
			SMTPPassword: getEnv("EXAMTRAINING_SMTP_PASSWORD", ""),
			From:         getEnv("EXAMTRAINING_MAIL_FROM", "examtraining <noreply@examtraining.online>"),
			Interval:     getEnvAsDuration("EXAMTRAINING_MAIL_INTERVAL", 30*time.Second),
			MaxAttempts:  getEnvAsInt("EXAMTRAINING_MAIL_MAX_ATTEMPTS", 5),
		},
		Log: LogConfig{
			Level: getEnvAsLevel("EXAMTRAINING_LOG_LEVEL", slog.LevelInfo),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Backend {
	case "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("EXAMTRAINING_POSTGRES_DSN is required for the postgres storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	switch c.Sessions.Backend {
	case "sqlite", "memory":
	case "redis":
		if c.Sessions.RedisURL == "" {
			return fmt.Errorf("EXAMTRAINING_REDIS_URL is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown session backend: %q", c.Sessions.Backend)
	}

	if c.Mail.SMTPHost != "" && c.Mail.From == "" {
		return fmt.Errorf("EXAMTRAINING_MAIL_FROM is required when SMTP is configured")
	}

	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value, exists := os.LookupEnv(key); exists {
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err == nil {
			return level
		}
	}
	return defaultValue
}
