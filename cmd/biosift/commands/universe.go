package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// universeCmd groups universe operations
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Universe operations",
}

// universeBuildCmd rebuilds the candidate universe
var universeBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a fresh universe snapshot",
	Long: `Screens the market for small-cap biotech candidates, validates
symbols against the quote provider, applies the liquidity filter, and
persists the snapshot.

Example:
  go run ./cmd/biosift universe build`,
	RunE: runUniverseBuild,
}

// universeShowCmd prints the latest universe snapshot
var universeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the latest universe snapshot",
	RunE:  runUniverseShow,
}

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeBuildCmd)
	universeCmd.AddCommand(universeShowCmd)
}

func runUniverseBuild(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	snapshot, err := application.builder.BuildUniverse(context.Background())
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	fmt.Printf("Universe %s: %d candidates, %d excluded\n",
		snapshot.ID, snapshot.Count(), len(snapshot.Excluded))

	return nil
}

func runUniverseShow(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	snapshot, err := application.universeRepo.GetLatestSnapshot(context.Background())
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}
	if snapshot == nil {
		fmt.Println("No universe snapshot exists yet. Run: biosift universe build")
		return nil
	}

	fmt.Printf("Universe %s (built %s): %d candidates\n",
		snapshot.ID, snapshot.BuildDate.Format("2006-01-02"), snapshot.Count())
	for _, candidate := range snapshot.Candidates {
		fmt.Printf("  %-6s %-40s cap=%d price=%.2f\n",
			candidate.Symbol, candidate.CompanyName, candidate.MarketCap, candidate.Price)
	}

	return nil
}
