package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// ingestCmd runs one evidence ingestion pass
var ingestCmd = &cobra.Command{
	Use:   "ingest [tickers...]",
	Short: "Ingest fundamentals and news evidence",
	Long: `Runs one ingestion pass. With no arguments the latest universe
snapshot is used; explicit tickers override it.

Tickers with the stalest fundamentals are refreshed first, and the run
is capped so it stays inside the provider's request budget.

Example:
  go run ./cmd/biosift ingest
  go run ./cmd/biosift ingest ACME BNTX`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	report, err := application.engine.RunIngestion(context.Background(), args)
	if err != nil {
		return fmt.Errorf("run ingestion: %w", err)
	}

	fmt.Printf("Ingestion finished in %s\n", report.Duration().Round(time.Millisecond))
	fmt.Printf("  tickers planned: %d\n", report.TickersPlanned)
	fmt.Printf("  fundamentals:    %d processed, %d skipped, %d errored\n",
		report.Fundamentals.Processed, report.Fundamentals.Skipped, report.Fundamentals.Errored)
	fmt.Printf("  news:            %d processed, %d skipped, %d errored (%d duplicates)\n",
		report.News.Processed, report.News.Skipped, report.News.Errored, report.NewsDuplicates)

	return nil
}
