package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/cranium/internal/config"
	"github.com/jonathan/cranium/internal/db"
	"github.com/jonathan/cranium/internal/persistence"
	"github.com/jonathan/cranium/internal/schemas"
	"github.com/jonathan/cranium/internal/types"
)

// Shared flags
var (
	configPath  string
	verbose     bool
	databaseURL string
	redisURL    string
	targetRole  string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Path to JSON config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
	pf.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL for stored profiles")
	pf.StringVar(&redisURL, "redis-url", "", "Redis URL for session state")
	pf.StringVar(&targetRole, "target-role", "", "Role advice is tailored to")
}

// resolveConfig builds the effective configuration. Flags set on the command
// line win, then environment variables, then the config file, then defaults.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()

	var fromFlags config.Config
	if flags.Changed("database-url") {
		fromFlags.DatabaseURL = databaseURL
	}
	if flags.Changed("redis-url") {
		fromFlags.RedisURL = redisURL
	}
	if flags.Changed("target-role") {
		fromFlags.TargetRole = targetRole
	}
	if flags.Changed("port") {
		fromFlags.Port = servePort
	}
	if flags.Changed("debounce-ms") {
		fromFlags.DebounceMS = serveDebounceMS
	}
	if flags.Changed("max-attempts") {
		fromFlags.MaxAttempts = serveMaxAttempts
	}
	if flags.Changed("jwt-secret") {
		fromFlags.JWTSecret = serveJWTSecret
	}

	env, err := config.FromEnv()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg := fromFlags.MergeWithDefaults(*env)

	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
		cfg.Verbose = cfg.Verbose || fileCfg.Verbose
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.Verbose = cfg.Verbose || verbose

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger returns the default logger when verbose and a silent one otherwise.
func newLogger(cfg config.Config) *log.Logger {
	if cfg.Verbose {
		return log.Default()
	}
	return log.New(io.Discard, "", 0)
}

// readProfile reads a profile snapshot from a JSON file, checking it against
// the profile contract before decoding.
func readProfile(path string) (*types.ProfileSnapshot, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}
	if err := schemas.Validate(schemas.Profile, string(content)); err != nil {
		return nil, fmt.Errorf("profile does not match schema: %w", err)
	}

	var p types.ProfileSnapshot
	if err := json.Unmarshal(content, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile JSON: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// loadProfile reads the profile from path, or from the database when userID is set.
func loadProfile(ctx context.Context, cfg config.Config, path, userID string) (*types.ProfileSnapshot, error) {
	if path != "" {
		return readProfile(path)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("--user-id requires DATABASE_URL or --database-url")
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()
	return database.LoadProfile(ctx, id)
}

// openCache connects to Redis when configured and otherwise falls back to
// an in-process cache, which only lives as long as this process.
func openCache(ctx context.Context, cfg config.Config, logger *log.Logger) (persistence.Cache, error) {
	if cfg.RedisURL == "" {
		logger.Printf("REDIS_URL not set, keeping session state in memory")
		return persistence.NewMemoryCache(10 * time.Minute), nil
	}
	cache, err := persistence.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return cache, nil
}

// writeJSON writes v as indented JSON to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
