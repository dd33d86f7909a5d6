// Package config provides configuration loading and validation for the
// cranium server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Engine defaults
const (
	DefaultPort           = 8080
	DefaultDebounceMS     = 3000
	DefaultMaxAttempts    = 3
	DefaultHistoryWindow  = 5
	DefaultSessionTTLHour = 24
)

// Config is the cranium configuration. Every field may come from a JSON
// file, the environment, or CLI flags.
type Config struct {
	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Backing services
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL for profiles
	RedisURL    string `json:"redis_url,omitempty"`    // Session cache; in-memory when empty
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key; advice is disabled when empty

	// Advisory
	TargetRole    string `json:"target_role,omitempty"`    // Role advice is tailored to
	DebounceMS    int    `json:"debounce_ms,omitempty"`    // Quiet period before an evaluation fires
	MaxAttempts   int    `json:"max_attempts,omitempty"`   // Attempts before advice is discarded
	HistoryWindow int    `json:"history_window,omitempty"` // Recent history entries sent with a request

	// Sessions
	SessionTTLHours int    `json:"session_ttl_hours,omitempty"` // Cache lifetime of session state
	JWTSecret       string `json:"jwt_secret,omitempty"`        // Bearer token signing secret

	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// Defaults returns the engine defaults.
func Defaults() Config {
	return Config{
		Port:            DefaultPort,
		DebounceMS:      DefaultDebounceMS,
		MaxAttempts:     DefaultMaxAttempts,
		HistoryWindow:   DefaultHistoryWindow,
		SessionTTLHours: DefaultSessionTTLHour,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv returns a Config populated from environment variables. Unset
// variables leave their field zero.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		TargetRole:  os.Getenv("TARGET_ROLE"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}

	ints := []struct {
		name string
		into *int
	}{
		{"PORT", &cfg.Port},
		{"ADVISORY_DEBOUNCE_MS", &cfg.DebounceMS},
		{"ADVISORY_MAX_ATTEMPTS", &cfg.MaxAttempts},
		{"ADVISORY_HISTORY_WINDOW", &cfg.HistoryWindow},
		{"SESSION_TTL_HOURS", &cfg.SessionTTLHours},
	}
	for _, v := range ints {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", v.name, err)
		}
		*v.into = n
	}

	return cfg, nil
}

// Validate checks that the configuration has valid values. Zero values are
// allowed since they are filled by MergeWithDefaults.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.DebounceMS < 0 {
		return fmt.Errorf("config error: 'debounce_ms' must be non-negative")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("config error: 'max_attempts' must be non-negative")
	}
	if c.HistoryWindow < 0 {
		return fmt.Errorf("config error: 'history_window' must be non-negative")
	}
	if c.SessionTTLHours < 0 {
		return fmt.Errorf("config error: 'session_ttl_hours' must be non-negative")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// It is applied in precedence order: flags, then environment, then file, then Defaults().
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.TargetRole == "" {
		result.TargetRole = defaults.TargetRole
	}
	if result.JWTSecret == "" {
		result.JWTSecret = defaults.JWTSecret
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DebounceMS == 0 {
		result.DebounceMS = defaults.DebounceMS
	}
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.HistoryWindow == 0 {
		result.HistoryWindow = defaults.HistoryWindow
	}
	if result.SessionTTLHours == 0 {
		result.SessionTTLHours = defaults.SessionTTLHours
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// DebounceWindow returns the advisory debounce as a duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// SessionTTL returns the cache lifetime of session state.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
