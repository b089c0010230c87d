package jobs

import (
	"context"
	"fmt"

	"github.com/dmercer/biosift/internal/events"
	"github.com/dmercer/biosift/internal/universe"
	"github.com/dmercer/biosift/pkg/logger"
)

// UniverseJob rebuilds the candidate universe every trading morning
type UniverseJob struct {
	builder *universe.Builder
	bus     *events.Bus
	logger  *logger.Logger
}

// NewUniverseJob creates a new universe build job
func NewUniverseJob(builder *universe.Builder, bus *events.Bus, log *logger.Logger) *UniverseJob {
	return &UniverseJob{
		builder: builder,
		bus:     bus,
		logger:  log,
	}
}

// Name returns the job name
func (j *UniverseJob) Name() string {
	return "universe_build"
}

// Schedule returns the cron schedule (weekdays at 6 AM)
func (j *UniverseJob) Schedule() string {
	return "0 0 6 * * 1-5"
}

// Run executes the universe build
func (j *UniverseJob) Run(ctx context.Context) error {
	snapshot, err := j.builder.BuildUniverse(ctx)
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"snapshot_id": snapshot.ID,
		"candidates":  snapshot.Count(),
		"excluded":    len(snapshot.Excluded),
	}).Info("Scheduled universe build completed")

	j.bus.Publish(events.TypeUniverseBuilt, map[string]interface{}{
		"snapshot_id": snapshot.ID,
		"candidates":  snapshot.Count(),
	})

	return nil
}
