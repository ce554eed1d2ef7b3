// Package main provides the entry point for the locations-of-interest watcher.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "loi_agent",
	Short:        "Locations of interest watcher",
	Long:         "loi_agent scrapes the published locations-of-interest tables, diffs them against the last snapshot and publishes added, updated and removed locations to a change stream.",
	SilenceUsage: true,
}

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (.json, .yaml or .yml); values can be overridden by env vars and flags")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed output")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
