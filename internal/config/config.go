package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// ErrNotConfigured marks a feature whose required settings are missing.
var ErrNotConfigured = errors.New("not configured")

// Error reports which settings a feature is missing. The key names are for
// server-side logs only and never leave the process in a response.
type Error struct {
	Feature string
	Missing []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: missing %s", e.Feature, ErrNotConfigured, strings.Join(e.Missing, ", "))
}

func (e *Error) Unwrap() error {
	return ErrNotConfigured
}

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Environment    string   `env:"ENV" envDefault:"development"`
	Port           string   `env:"PORT" envDefault:"8000"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	Mail      MailConfig
	RateLimit RateLimitConfig
	Analytics AnalyticsConfig
	Log       LogConfig

	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/portfolio.db"`
}

// MailConfig holds the outbound SMTP settings and the contact recipient.
type MailConfig struct {
	Recipient string        `env:"CONTACT_EMAIL"`
	Sender    string        `env:"SENDER_EMAIL"`
	Password  string        `env:"SENDER_PASSWORD"`
	Host      string        `env:"SMTP_SERVER" envDefault:"smtp.gmail.com"`
	Port      int           `env:"SMTP_PORT" envDefault:"587"`
	Timeout   time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
}

// Validate reports the missing mail settings, if any.
func (m MailConfig) Validate() error {
	var missing []string
	if m.Recipient == "" {
		missing = append(missing, "CONTACT_EMAIL")
	}
	if m.Sender == "" {
		missing = append(missing, "SENDER_EMAIL")
	}
	if m.Password == "" {
		missing = append(missing, "SENDER_PASSWORD")
	}
	if m.Host == "" {
		missing = append(missing, "SMTP_SERVER")
	}
	if m.Port <= 0 {
		missing = append(missing, "SMTP_PORT")
	}
	if len(missing) > 0 {
		return &Error{Feature: "mail", Missing: missing}
	}
	return nil
}

// Addr returns host:port of the SMTP server.
func (m MailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// RateLimitConfig holds the contact form sliding-window limits.
type RateLimitConfig struct {
	Window    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	PerClient int           `env:"RATE_LIMIT_PER_CLIENT" envDefault:"5"`
	PerEmail  int           `env:"RATE_LIMIT_PER_EMAIL" envDefault:"2"`
	Store     string        `env:"RATE_LIMIT_STORE" envDefault:"memory"`
}

// AnalyticsConfig holds project view tracking settings.
type AnalyticsConfig struct {
	AdminToken string        `env:"ADMIN_TOKEN"`
	HashSalt   string        `env:"IP_HASH_SALT"`
	Retention  time.Duration `env:"VIEW_RETENTION" envDefault:"8760h"`
	ViewRPS    float64       `env:"VIEW_RATE_RPS" envDefault:"5"`
	ViewBurst  int           `env:"VIEW_RATE_BURST" envDefault:"20"`
}

// LogConfig holds logging-related configuration
type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	File       string `env:"LOG_FILE" envDefault:"./logs/api.log"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"28"`
	Requests   bool   `env:"LOG_REQUESTS" envDefault:"true"`
}

// Load reads an optional .env file and then parses the environment.
// A missing .env file is not an error.
func Load() (*Config, error) {
	envFiles := []string{".env"}
	if name := os.Getenv("ENV"); name != "" {
		envFiles = append([]string{".env." + name}, envFiles...)
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// godotenv.Load never overrides variables that are already set
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
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
	switch c.RateLimit.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("invalid RATE_LIMIT_STORE %q: want memory or sqlite", c.RateLimit.Store)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.RateLimit.PerClient <= 0 || c.RateLimit.PerEmail <= 0 {
		return fmt.Errorf("rate limit thresholds must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
