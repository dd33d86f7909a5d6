package ratelimit

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// EndpointConfig limits one method on a path. A path ending in "/" matches
// every path below it.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int // defaults to Limit
}

// DefaultConfig returns the limits used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: SessionEndpoints(),
	}
}

// SessionEndpoints returns the per-endpoint limits of the session API.
// Reads and the health check fall through to the default limit.
func SessionEndpoints() []EndpointConfig {
	return []EndpointConfig{
		// Creating a session may load a profile from Postgres
		{Path: "/sessions", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		// Hover events arrive many per second while an item is dragged
		{Path: "/sessions/", Method: "POST", Limit: 1200, Window: time.Minute, Burst: 60},
		{Path: "/sessions/", Method: "PATCH", Limit: 600, Window: time.Minute, Burst: 30},
		{Path: "/sessions/", Method: "PUT", Limit: 300, Window: time.Minute, Burst: 30},
		{Path: "/sessions/", Method: "DELETE", Limit: 120, Window: time.Minute, Burst: 10},
	}
}

// FromEnv overlays RATE_LIMIT_* environment variables on DefaultConfig.
// A malformed value is an error.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()

	if raw := os.Getenv("RATE_LIMIT_ENABLED"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_ENABLED %q: %w", raw, err)
		}
		cfg.Enabled = enabled
	}
	if raw := os.Getenv("RATE_LIMIT_DEFAULT_LIMIT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_DEFAULT_LIMIT %q", raw)
		}
		cfg.DefaultLimit = n
	}

	durations := []struct {
		name string
		into *time.Duration
	}{
		{"RATE_LIMIT_DEFAULT_WINDOW", &cfg.DefaultWindow},
		{"RATE_LIMIT_CLEANUP_INTERVAL", &cfg.CleanupInterval},
		{"RATE_LIMIT_IDLE_TTL", &cfg.IdleTTL},
	}
	for _, v := range durations {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid %s %q", v.name, raw)
		}
		*v.into = d
	}

	cfg.Whitelist = parseIPList(os.Getenv("RATE_LIMIT_WHITELIST"))
	cfg.Blacklist = parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST"))
	return cfg, nil
}

func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
