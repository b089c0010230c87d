package jobs

import (
	"context"
	"fmt"

	"github.com/dmercer/biosift/internal/events"
	"github.com/dmercer/biosift/internal/ingest"
	"github.com/dmercer/biosift/pkg/logger"
)

// IngestionJob refreshes evidence for the current universe during the
// trading day
type IngestionJob struct {
	engine *ingest.Engine
	bus    *events.Bus
	logger *logger.Logger
}

// NewIngestionJob creates a new evidence ingestion job
func NewIngestionJob(engine *ingest.Engine, bus *events.Bus, log *logger.Logger) *IngestionJob {
	return &IngestionJob{
		engine: engine,
		bus:    bus,
		logger: log,
	}
}

// Name returns the job name
func (j *IngestionJob) Name() string {
	return "evidence_ingestion"
}

// Schedule returns the cron schedule (every 2 hours, 8 AM to 6 PM, weekdays)
func (j *IngestionJob) Schedule() string {
	return "0 0 8-18/2 * * 1-5"
}

// Run executes one ingestion run over the latest universe
func (j *IngestionJob) Run(ctx context.Context) error {
	report, err := j.engine.RunIngestion(ctx, nil)
	if err != nil {
		return fmt.Errorf("run ingestion: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"planned":        report.TickersPlanned,
		"fund_processed": report.Fundamentals.Processed,
		"news_processed": report.News.Processed,
		"duration":       report.Duration(),
	}).Info("Scheduled ingestion completed")

	j.bus.Publish(events.TypeIngestionCompleted, report)

	return nil
}
