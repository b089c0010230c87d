package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmercer/biosift/internal/contracts"
	"github.com/dmercer/biosift/pkg/config"
	"github.com/dmercer/biosift/pkg/logger"
)

// UniverseSource supplies the current universe snapshot
type UniverseSource interface {
	GetLatestSnapshot(ctx context.Context) (*contracts.UniverseSnapshot, error)
}

// BatchBundleSource supplies bundles for the whole universe in one pass
type BatchBundleSource interface {
	BuildBundles(ctx context.Context, tickers []string) (map[string]*contracts.EvidenceBundle, error)
}

// SnapshotStore persists ranked snapshots
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot *contracts.RankedSnapshot) error
}

// Ranker scores the current universe and persists an immutable ranked
// snapshot. Re-running against unchanged evidence yields identical
// content (modulo id and timestamp).
type Ranker struct {
	universe UniverseSource
	bundles  BatchBundleSource
	scorer   *Scorer
	repo     SnapshotStore
	config   config.ScoringConfig
	logger   *logger.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewRanker creates a new ranker
func NewRanker(universe UniverseSource, bundles BatchBundleSource, scorer *Scorer, repo SnapshotStore, cfg config.ScoringConfig, log *logger.Logger) *Ranker {
	return &Ranker{
		universe: universe,
		bundles:  bundles,
		scorer:   scorer,
		repo:     repo,
		config:   cfg,
		logger:   log.WithField("module", "ranking"),
		now:      time.Now,
	}
}

// RankUniverse scores every ticker in the current universe, sorts with the
// deterministic tie-break, and persists the snapshot. Requires a universe
// snapshot; individual scoring failures degrade to placeholder entries.
func (r *Ranker) RankUniverse(ctx context.Context) (*contracts.RankedSnapshot, error) {
	universe, err := r.universe.GetLatestSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest universe: %w", err)
	}
	if universe == nil {
		return nil, fmt.Errorf("no universe snapshot exists")
	}

	symbols := universe.Symbols()
	bundles, err := r.bundles.BuildBundles(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("build bundles: %w", err)
	}

	now := r.now()
	scores := make([]contracts.RankedScore, 0, len(symbols))
	for _, symbol := range symbols {
		scores = append(scores, r.scoreSafely(symbol, bundles[symbol], now))
	}

	sort.Slice(scores, func(i, j int) bool {
		return contracts.Less(scores[i], scores[j])
	})

	snapshot := &contracts.RankedSnapshot{
		ID:          fmt.Sprintf("rank-%s", now.UTC().Format("20060102T150405")),
		UniverseID:  universe.ID,
		GeneratedAt: now,
		Scores:      scores,
		Config: contracts.ScoringEcho{
			FundamentalsWeight: r.config.FundamentalsWeight,
			NewsWeight:         r.config.NewsWeight,
			MomentumWeight:     r.config.MomentumWeight,
			RiskWeight:         r.config.RiskWeight,
			NewsDecayPerDay:    r.config.NewsDecayPerDay,
			MaxNewsItems:       r.config.MaxNewsItems,
		},
	}

	if err := r.repo.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save ranked snapshot: %w", err)
	}

	scored := 0
	for _, bundle := range bundles {
		if bundle != nil {
			scored++
		}
	}
	r.logger.WithFields(map[string]interface{}{
		"snapshot_id":   snapshot.ID,
		"universe_id":   universe.ID,
		"tickers":       len(symbols),
		"with_evidence": scored,
	}).Info("Ranking completed")

	return snapshot, nil
}

// scoreSafely scores one ticker, degrading a scoring panic to a
// placeholder entry so one bad ticker cannot abort the run
func (r *Ranker) scoreSafely(ticker string, bundle *contracts.EvidenceBundle, now time.Time) (score contracts.RankedScore) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"panic":  rec,
			}).Error("Scoring failed")
			score = contracts.RankedScore{
				Ticker:      ticker,
				Composite:   0,
				RiskPenalty: penaltyScoringError,
				Reasons:     []string{contracts.ReasonScoringError},
			}
		}
	}()

	return r.scorer.ScoreBundle(ticker, bundle, now)
}
