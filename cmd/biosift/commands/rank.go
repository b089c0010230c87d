package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// rankCmd scores the current universe and prints the leaders
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score and rank the current universe",
	Long: `Assembles evidence bundles for every ticker in the latest universe
snapshot, computes composite scores, and persists a ranked snapshot.

Example:
  go run ./cmd/biosift rank
  go run ./cmd/biosift rank --top 25`,
	RunE: runRank,
}

var rankTop int

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().IntVar(&rankTop, "top", 20, "number of leaders to print")
}

func runRank(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	snapshot, err := application.ranker.RankUniverse(context.Background())
	if err != nil {
		return fmt.Errorf("rank universe: %w", err)
	}

	fmt.Printf("Ranked snapshot %s over universe %s (%d tickers)\n\n",
		snapshot.ID, snapshot.UniverseID, len(snapshot.Scores))

	fmt.Printf("%-4s %-6s %9s %6s %6s %6s %6s  %s\n",
		"#", "TICKER", "COMPOSITE", "FUND", "NEWS", "MOM", "RISK", "REASONS")
	for i, score := range snapshot.Top(rankTop) {
		fmt.Printf("%-4d %-6s %9.2f %6.1f %6.1f %6.1f %6.1f  %s\n",
			i+1, score.Ticker, score.Composite,
			score.FundamentalsScore, score.NewsScore, score.MomentumScore, score.RiskPenalty,
			strings.Join(score.Reasons, ","))
	}

	return nil
}
