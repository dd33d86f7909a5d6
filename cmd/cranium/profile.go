package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cranium/internal/db"
)

var profilePath string

var validateProfileCmd = &cobra.Command{
	Use:   "validate-profile",
	Short: "Validate a profile JSON file",
	Long: `Check a profile file against the profile schema and the field rules used
when a workspace imports it.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := readProfile(profilePath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Validation passed: %d items\n", len(p.Items()))
		return nil
	},
}

var importProfileCmd = &cobra.Command{
	Use:   "import-profile",
	Short: "Store a profile JSON file in the database",
	Long: `Validate a profile file and save it as a new user. The new user id is
printed; pass it to "export --user-id" or use it as a session owner.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL or --database-url is required")
		}
		p, err := readProfile(profilePath)
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			return err
		}

		id, err := database.SaveProfile(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id.String())
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{validateProfileCmd, importProfileCmd} {
		c.Flags().StringVarP(&profilePath, "profile", "p", "", "Path to profile JSON file")
		_ = c.MarkFlagRequired("profile")
		rootCmd.AddCommand(c)
	}
}
