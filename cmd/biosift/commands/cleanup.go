package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// cleanupCmd runs the retention sweep once
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete evidence and snapshots past retention",
	Long: `Deletes evidence items older than the evidence retention window and
universe/ranked snapshots older than the snapshot retention window.

Example:
  go run ./cmd/biosift cleanup`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := context.Background()
	now := time.Now()

	evidenceCutoff := now.AddDate(0, 0, -application.cfg.Ingestion.EvidenceRetentionDays)
	evidenceDeleted, err := application.evidenceRepo.DeleteOlderThan(ctx, evidenceCutoff)
	if err != nil {
		return fmt.Errorf("sweep evidence: %w", err)
	}

	snapshotCutoff := now.AddDate(0, 0, -application.cfg.Universe.RetentionDays)
	universeDeleted, err := application.universeRepo.DeleteOlderThan(ctx, snapshotCutoff)
	if err != nil {
		return fmt.Errorf("sweep universe snapshots: %w", err)
	}

	rankedDeleted, err := application.rankedRepo.DeleteOlderThan(ctx, snapshotCutoff)
	if err != nil {
		return fmt.Errorf("sweep ranked snapshots: %w", err)
	}

	fmt.Printf("Deleted %d evidence items, %d universe snapshots, %d ranked snapshots\n",
		evidenceDeleted, universeDeleted, rankedDeleted)

	return nil
}
