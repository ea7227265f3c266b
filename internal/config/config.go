// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
)

// Store drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Port              string `env:"PORT" envDefault:"8080"`
	FrontendURL       string `env:"FRONTEND_URL"`
	Environment       string `env:"APP_ENV"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	GRPCHealthPort    string `env:"GRPC_HEALTH_PORT"`
	HuggingFaceAPIKey string `env:"HUGGINGFACE_API_KEY"`

	Store   StoreConfig   `envPrefix:"STORE_"`
	Chat    ChatConfig    `envPrefix:"CHAT_"`
	Session SessionConfig `envPrefix:"SESSION_"`
	Admin   AdminConfig   `envPrefix:"ADMIN_"`
	Mail    MailConfig
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Driver     string `env:"DRIVER" envDefault:"json"`
	DataDir    string `env:"DATA_DIR" envDefault:"./data"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./data/portfolio.db"`
}

// MailConfig controls the contact form relay.
type MailConfig struct {
	SMTP           SMTPConfig `envPrefix:"SMTP_"`
	SenderEmail    string     `env:"SENDER_EMAIL"`
	RecipientEmail string     `env:"RECIPIENT_EMAIL"`
}

// SMTPConfig is the outbound relay. The defaults target SendGrid.
type SMTPConfig struct {
	Host string `env:"HOST" envDefault:"smtp.sendgrid.net"`
	Port int    `env:"PORT" envDefault:"587"`
	User string `env:"USER" envDefault:"apikey"`
	Pass string `env:"PASS"`
}

// ChatConfig tunes the local inference pipeline.
type ChatConfig struct {
	Model       string        `env:"MODEL" envDefault:"mistralai/Mistral-7B-Instruct-v0.2"`
	BaseURL     string        `env:"BASE_URL"`
	Persona     string        `env:"PERSONA" envDefault:"Albert"`
	Cooldown    time.Duration `env:"COOLDOWN" envDefault:"5s"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	WordDelay   time.Duration `env:"WORD_DELAY" envDefault:"15ms"`
}

// SessionConfig controls admin sessions.
type SessionConfig struct {
	Secret        string        `env:"SECRET"`
	TTL           time.Duration `env:"TTL" envDefault:"24h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
}

// AdminConfig bootstraps the admin account at startup when both fields are set.
type AdminConfig struct {
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Port == "" {
		result = multierror.Append(result, errors.New("PORT cannot be empty"))
	}
	if _, err := c.SlogLevel(); err != nil {
		result = multierror.Append(result, err)
	}

	switch c.Store.Driver {
	case DriverJSON:
		if c.Store.DataDir == "" {
			result = multierror.Append(result, errors.New("STORE_DATA_DIR cannot be empty"))
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			result = multierror.Append(result, errors.New("STORE_SQLITE_PATH cannot be empty"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverJSON, DriverSQLite, c.Store.Driver))
	}

	if c.Chat.Cooldown < 0 {
		result = multierror.Append(result, errors.New("CHAT_COOLDOWN must be >= 0"))
	}
	if c.Chat.CacheTTL <= 0 {
		result = multierror.Append(result, errors.New("CHAT_CACHE_TTL must be > 0"))
	}
	if c.Chat.MaxAttempts <= 0 {
		result = multierror.Append(result, errors.New("CHAT_MAX_ATTEMPTS must be > 0"))
	}

	if c.Session.TTL <= 0 {
		result = multierror.Append(result, errors.New("SESSION_TTL must be > 0"))
	}
	if c.Session.SweepInterval <= 0 {
		result = multierror.Append(result, errors.New("SESSION_SWEEP_INTERVAL must be > 0"))
	}
	if c.Session.Secret == "" && !c.IsDevelopment() {
		result = multierror.Append(result, errors.New("SESSION_SECRET is required in production"))
	}

	if (c.Admin.Username == "") != (c.Admin.Password == "") {
		result = multierror.Append(result, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together"))
	}

	return result.ErrorOrNil()
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	if strings.EqualFold(c.Environment, "production") {
		return false
	}
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// MailEnabled reports whether the contact form can relay mail.
func (c *Config) MailEnabled() bool {
	return c.Mail.SMTP.Pass != "" && c.Mail.SenderEmail != "" && c.Mail.RecipientEmail != ""
}

// ChatEnabled reports whether the local inference pipeline has credentials.
func (c *Config) ChatEnabled() bool {
	return c.HuggingFaceAPIKey != ""
}

// SlogLevel parses LOG_LEVEL.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not a valid level", c.LogLevel)
	}
	return level, nil
}
