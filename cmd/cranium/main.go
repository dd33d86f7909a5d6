// Package main provides the cranium CLI: the workspace HTTP server plus
// offline profile, export and advice commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cranium",
	Short: "Resume workbench engine",
	Long: "cranium organizes resume content into chosen and available items, " +
		"custom sections and edits, and asks an advisory model for feedback as the selection changes.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
