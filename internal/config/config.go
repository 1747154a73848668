// Package config loads trackctl settings from a YAML file, .env files and
// TRACKADMIN_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRACKADMIN_"

// Config represents the console configuration.
type Config struct {
	API           APIConfig          `yaml:"api" envPrefix:"API_"`
	Console       ConsoleConfig      `yaml:"console" envPrefix:"CONSOLE_"`
	Notifications NotificationConfig `yaml:"notifications" envPrefix:"NOTIFICATIONS_"`
	Log           LogConfig          `yaml:"log" envPrefix:"LOG_"`
	Session       SessionConfig      `yaml:"session" envPrefix:"SESSION_"`
	Fake          FakeConfig         `yaml:"fake" envPrefix:"FAKE_"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url" env:"BASE_URL"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"` // 0 disables pacing
	Burst             int           `yaml:"burst" env:"BURST"`
}

// ConsoleConfig contains controller behaviour.
type ConsoleConfig struct {
	PageSize     int  `yaml:"page_size" env:"PAGE_SIZE"`
	PatchInPlace bool `yaml:"patch_in_place" env:"PATCH_IN_PLACE"`
}

// NotificationConfig rate-limits non-error notifications.
type NotificationConfig struct {
	Unlimited bool    `yaml:"unlimited" env:"UNLIMITED"`
	PerSecond float64 `yaml:"per_second" env:"PER_SECOND"`
	Burst     int     `yaml:"burst" env:"BURST"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"` // console or json
}

// SessionConfig locates the persisted CLI session.
type SessionConfig struct {
	File string `yaml:"file" env:"FILE"`
}

// FakeConfig configures `trackctl serve-fake`.
type FakeConfig struct {
	Address       string        `yaml:"address" env:"ADDRESS"`
	MetricsPath   string        `yaml:"metrics_path" env:"METRICS_PATH"`
	JWTSecret     string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL      time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
	AdminEmail    string        `yaml:"admin_email" env:"ADMIN_EMAIL"`
	AdminPassword string        `yaml:"admin_password" env:"ADMIN_PASSWORD"`

	// LockoutThreshold <0 disables login lockout; 0 uses the backend default.
	LockoutThreshold int           `yaml:"lockout_threshold" env:"LOCKOUT_THRESHOLD"`
	LockoutDuration  time.Duration `yaml:"lockout_duration" env:"LOCKOUT_DURATION"`
}

// Load reads the YAML file at path (optional when empty or missing and
// not required), loads envFiles into the process environment and applies
// TRACKADMIN_* overrides.
func Load(path string, required bool, envFiles ...string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if _, err := LoadEnvFiles(envFiles...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFiles loads the files that exist, leaving variables already set
// untouched. It returns how many were loaded.
func LoadEnvFiles(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// DefaultSessionFile is where trackctl keeps the signed-in session.
func DefaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "trackadmin", "session.yaml")
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8080"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.API.Burst == 0 {
		c.API.Burst = 1
	}
	if c.Console.PageSize == 0 {
		c.Console.PageSize = 10
	}
	if c.Notifications.PerSecond == 0 {
		c.Notifications.PerSecond = 2
	}
	if c.Notifications.Burst == 0 {
		c.Notifications.Burst = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Session.File == "" {
		c.Session.File = DefaultSessionFile()
	}
	if c.Fake.Address == "" {
		c.Fake.Address = "127.0.0.1:8080"
	}
	if c.Fake.MetricsPath == "" {
		c.Fake.MetricsPath = "/metrics"
	}
	if c.Fake.TokenTTL == 0 {
		c.Fake.TokenTTL = time.Hour
	}
	if c.Fake.AdminEmail == "" {
		c.Fake.AdminEmail = "admin@trackadmin.local"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) url, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must not be negative")
	}
	if c.Console.PageSize < 1 {
		return fmt.Errorf("console.page_size must be at least 1")
	}
	if c.Notifications.PerSecond < 0 || c.Notifications.Burst < 0 {
		return fmt.Errorf("notifications.per_second and notifications.burst must not be negative")
	}
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of trace, debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Fake.TokenTTL < 0 {
		return fmt.Errorf("fake.token_ttl must not be negative")
	}
	return nil
}

// ValidateFake checks the settings `serve-fake` needs on top of Validate.
func (c *Config) ValidateFake() error {
	if c.Fake.JWTSecret == "" {
		return fmt.Errorf("fake.jwt_secret is required")
	}
	if len(c.Fake.AdminPassword) < 8 {
		return fmt.Errorf("fake.admin_password must be at least 8 characters")
	}
	return nil
}
