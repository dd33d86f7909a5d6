package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/cranium/internal/config"
	"github.com/jonathan/cranium/internal/server"
)

var tokenUserID string

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Issue a bearer token for a user",
	Long: `Sign a bearer token with JWT_SECRET (or --jwt-secret) so a client can own
sessions on a server started with the same secret.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		id, err := uuid.Parse(tokenUserID)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", tokenUserID, err)
		}
		jwtConfig, err := config.NewJWTConfig(cfg.JWTSecret)
		if err != nil {
			return err
		}
		token, err := server.NewJWTService(jwtConfig).GenerateToken(id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	issueTokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "User the token identifies")
	issueTokenCmd.Flags().StringVar(&serveJWTSecret, "jwt-secret", "", "Secret for bearer tokens")
	_ = issueTokenCmd.MarkFlagRequired("user-id")
	rootCmd.AddCommand(issueTokenCmd)
}
