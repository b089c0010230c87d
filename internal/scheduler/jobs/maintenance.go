package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/dmercer/biosift/internal/ingest"
	"github.com/dmercer/biosift/internal/ranking"
	"github.com/dmercer/biosift/internal/universe"
	"github.com/dmercer/biosift/pkg/config"
	"github.com/dmercer/biosift/pkg/logger"
)

// MaintenanceJob sweeps expired evidence and old snapshots nightly
type MaintenanceJob struct {
	evidence *ingest.Repository
	universe *universe.Repository
	ranked   *ranking.Repository
	config   *config.Config
	logger   *logger.Logger
}

// NewMaintenanceJob creates a new retention sweep job
func NewMaintenanceJob(evidence *ingest.Repository, universeRepo *universe.Repository, ranked *ranking.Repository, cfg *config.Config, log *logger.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		evidence: evidence,
		universe: universeRepo,
		ranked:   ranked,
		config:   cfg,
		logger:   log,
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "retention_sweep"
}

// Schedule returns the cron schedule (every day at 2 AM)
func (j *MaintenanceJob) Schedule() string {
	return "0 0 2 * * *"
}

// Run deletes records past their retention windows
func (j *MaintenanceJob) Run(ctx context.Context) error {
	now := time.Now()

	evidenceCutoff := now.AddDate(0, 0, -j.config.Ingestion.EvidenceRetentionDays)
	evidenceDeleted, err := j.evidence.DeleteOlderThan(ctx, evidenceCutoff)
	if err != nil {
		return fmt.Errorf("sweep evidence: %w", err)
	}

	snapshotCutoff := now.AddDate(0, 0, -j.config.Universe.RetentionDays)
	universeDeleted, err := j.universe.DeleteOlderThan(ctx, snapshotCutoff)
	if err != nil {
		return fmt.Errorf("sweep universe snapshots: %w", err)
	}

	rankedDeleted, err := j.ranked.DeleteOlderThan(ctx, snapshotCutoff)
	if err != nil {
		return fmt.Errorf("sweep ranked snapshots: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"evidence_deleted": evidenceDeleted,
		"universe_deleted": universeDeleted,
		"ranked_deleted":   rankedDeleted,
	}).Info("Retention sweep completed")

	return nil
}
