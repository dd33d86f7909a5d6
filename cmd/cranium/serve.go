package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cranium/internal/advisory"
	"github.com/jonathan/cranium/internal/config"
	"github.com/jonathan/cranium/internal/db"
	"github.com/jonathan/cranium/internal/llm"
	"github.com/jonathan/cranium/internal/server"
)

var (
	servePort        int
	serveDebounceMS  int
	serveMaxAttempts int
	serveJWTSecret   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workspace HTTP server",
	Long: `Start an HTTP server that hosts workspace sessions: drag and drop, edits,
custom sections, advisory alerts over Server-Sent Events, and export.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().IntVar(&serveDebounceMS, "debounce-ms", config.DefaultDebounceMS, "Quiet period before advice is requested")
	serveCmd.Flags().IntVar(&serveMaxAttempts, "max-attempts", config.DefaultMaxAttempts, "Advisory attempts before a result is discarded")
	serveCmd.Flags().StringVar(&serveJWTSecret, "jwt-secret", "", "Secret for bearer tokens; sessions are anonymous without one")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	logger := newLogger(cfg)
	opts := server.Options{Logger: logger}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			return err
		}
		opts.DB = database
	}

	cache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cache.Close()
	opts.Cache = cache

	if cfg.APIKey != "" {
		client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer client.Close()
		opts.Advisor = advisory.NewLLMAdvisor(client)
	} else {
		logger.Printf("GEMINI_API_KEY not set, advisory evaluation disabled")
	}

	if cfg.JWTSecret != "" {
		jwtConfig, err := config.NewJWTConfig(cfg.JWTSecret)
		if err != nil {
			return fmt.Errorf("failed to create JWT config: %w", err)
		}
		opts.JWT = server.NewJWTService(jwtConfig)
	}

	return server.New(cfg, opts).Start()
}
