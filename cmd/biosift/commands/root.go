package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile string
	verbose bool
)

// rootCmd is the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "biosift",
	Short: "Small-cap biotech discovery and ranking pipeline",
	Long: `biosift builds a tradable universe of small-cap biotech equities,
ingests fundamentals and news evidence for it, and ranks the universe
with a deterministic composite score.

Usage:
  go run ./cmd/biosift [command]

Examples:
  go run ./cmd/biosift serve
  go run ./cmd/biosift universe build
  go run ./cmd/biosift ingest
  go run ./cmd/biosift rank --top 25`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
