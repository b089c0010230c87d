package jobs

import (
	"context"
	"fmt"

	"github.com/dmercer/biosift/internal/events"
	"github.com/dmercer/biosift/internal/ranking"
	"github.com/dmercer/biosift/pkg/logger"
)

// RankingJob rescores the universe shortly after each ingestion pass
type RankingJob struct {
	ranker *ranking.Ranker
	bus    *events.Bus
	logger *logger.Logger
}

// NewRankingJob creates a new ranking job
func NewRankingJob(ranker *ranking.Ranker, bus *events.Bus, log *logger.Logger) *RankingJob {
	return &RankingJob{
		ranker: ranker,
		bus:    bus,
		logger: log,
	}
}

// Name returns the job name
func (j *RankingJob) Name() string {
	return "universe_ranking"
}

// Schedule returns the cron schedule (30 past every ingestion slot)
func (j *RankingJob) Schedule() string {
	return "0 30 8-18/2 * * 1-5"
}

// Run executes one ranking run
func (j *RankingJob) Run(ctx context.Context) error {
	snapshot, err := j.ranker.RankUniverse(ctx)
	if err != nil {
		return fmt.Errorf("rank universe: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"snapshot_id": snapshot.ID,
		"universe_id": snapshot.UniverseID,
		"tickers":     len(snapshot.Scores),
	}).Info("Scheduled ranking completed")

	j.bus.Publish(events.TypeRankingCompleted, map[string]interface{}{
		"snapshot_id": snapshot.ID,
		"tickers":     len(snapshot.Scores),
	})

	return nil
}
