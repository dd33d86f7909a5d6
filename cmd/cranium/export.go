package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/cranium/internal/config"
	"github.com/jonathan/cranium/internal/observability"
	"github.com/jonathan/cranium/internal/persistence"
	"github.com/jonathan/cranium/internal/placement"
	"github.com/jonathan/cranium/internal/workspace"
)

var (
	exportProfile   string
	exportUserID    string
	exportSession   string
	exportOwner     string
	exportChoose    []string
	exportContainer string
	exportOut       string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a resume document from a profile",
	Long: `Build the renderer document for a profile. Items are chosen either with
--choose, in the order given, or by restoring a cached server session with
--session.

Examples:
  cranium export --profile profile.json --choose exp-1,skill-go
  cranium export --user-id <uuid> --session <uuid> --owner <uuid> --out resume.json`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportProfile, "profile", "p", "", "Path to profile JSON file")
	exportCmd.Flags().StringVar(&exportUserID, "user-id", "", "Load the profile of this stored user")
	exportCmd.Flags().StringVar(&exportSession, "session", "", "Restore this cached session before exporting")
	exportCmd.Flags().StringVar(&exportOwner, "owner", "anonymous", "Owner of the cached session")
	exportCmd.Flags().StringSliceVar(&exportChoose, "choose", nil, "Item ids to place in the chosen container, in order")
	exportCmd.Flags().StringVar(&exportContainer, "container", "", "Export only the items of one container")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")

	exportCmd.MarkFlagsMutuallyExclusive("profile", "user-id")
	exportCmd.MarkFlagsOneRequired("profile", "user-id")
	exportCmd.MarkFlagsMutuallyExclusive("choose", "session")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	logger := newLogger(cfg)

	var bridge *persistence.Bridge
	if exportSession != "" {
		if cfg.RedisURL == "" {
			return fmt.Errorf("--session requires REDIS_URL or --redis-url")
		}
		cache, err := openCache(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cache.Close()
		bridge = persistence.NewBridge(cache, exportOwner, exportSession, cfg.SessionTTL(), logger)
	}

	printer := verbosePrinter(cmd, cfg)
	ws, err := seedWorkspace(ctx, cfg, logger, printer, bridge, exportProfile, exportUserID, exportChoose)
	if err != nil {
		return err
	}
	defer ws.Close()

	if bridge != nil {
		if err := ws.Restore(ctx); err != nil {
			return err
		}
	}

	if exportContainer != "" {
		items, err := ws.ExportContainer(exportContainer)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), exportOut, items)
	}
	doc := ws.Export()
	if printer != nil {
		printer.PrintExport(doc)
	}
	return writeJSON(cmd.OutOrStdout(), exportOut, doc)
}

// seedWorkspace imports the profile into a fresh workspace and moves the
// chosen ids into "chosen" in the order given. The workspace never schedules
// advice.
func seedWorkspace(ctx context.Context, cfg config.Config, logger *log.Logger, printer *observability.Printer, bridge *persistence.Bridge, path, userID string, chosen []string) (*workspace.Workspace, error) {
	profile, err := loadProfile(ctx, cfg, path, userID)
	if err != nil {
		return nil, err
	}
	if printer != nil {
		printer.PrintProfile(profile)
	}

	ws := workspace.New(workspace.Options{
		TargetRole:    cfg.TargetRole,
		HistoryWindow: cfg.HistoryWindow,
		Bridge:        bridge,
		Logger:        logger,
	})
	if err := ws.Import(profile); err != nil {
		ws.Close()
		return nil, err
	}
	for i, id := range chosen {
		if _, err := ws.MoveItem(id, placement.Chosen, i); err != nil {
			ws.Close()
			return nil, fmt.Errorf("failed to choose %q: %w", id, err)
		}
	}
	return ws, nil
}

// verbosePrinter returns a summary printer on stderr in verbose mode and nil otherwise.
func verbosePrinter(cmd *cobra.Command, cfg config.Config) *observability.Printer {
	if !cfg.Verbose {
		return nil
	}
	return observability.NewPrinter(cmd.ErrOrStderr())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
