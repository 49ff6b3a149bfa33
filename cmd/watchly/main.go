// Package main is the entry point for the watchly CLI.
//
// Usage:
//
//	watchly serve -c watchly.yaml --watch   # Run the monitor and HTTP API
//	watchly check -c watchly.yaml           # Run a single tick and exit
//	watchly seed -f seed.yaml               # Load users and websites
//	watchly migrate --rollback              # Roll back the latest migration
//	watchly version                         # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"watchly/internal/core"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "watchly",
	Short: "Website uptime monitoring with email alerts",
	Long: `Watchly probes a set of websites on a fixed interval, records uptime and
latency for every probe, opens an alert when a website goes down and resolves
it when the website recovers. The owner is emailed on both transitions.

Configuration is read from defaults, an optional YAML file (--config) and
WATCHLY_* environment variables, in that order. A .env file in the working
directory is loaded first if present.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "watchly %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to YAML config file")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads .env, then the layered config, and builds the logger
func loadConfig(cmd *cobra.Command) (*core.Config, *core.Logger, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	path, _ := cmd.Flags().GetString("config")
	config, err := core.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := core.ParseLevel(config.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	return config, core.NewLoggerWithLevel(os.Stdout, level), nil
}
