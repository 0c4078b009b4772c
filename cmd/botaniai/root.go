package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serviceURL string

var rootCmd = &cobra.Command{
	Use:   "botaniai",
	Short: "Command-line client for the BotaniAI plant-health service",
	Long: `botaniai queries a running prediction service, manages model artifacts
and runs the greenhouse telemetry simulator.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "botaniai: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serviceURL, "url", envOr("BOTANIAI_URL", "http://localhost:8000"), "prediction service base URL")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
