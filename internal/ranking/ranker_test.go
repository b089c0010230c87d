package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmercer/biosift/internal/contracts"
	"github.com/dmercer/biosift/pkg/logger"
)

type fakeUniverse struct {
	snapshot *contracts.UniverseSnapshot
}

func (u *fakeUniverse) GetLatestSnapshot(ctx context.Context) (*contracts.UniverseSnapshot, error) {
	return u.snapshot, nil
}

type fakeBundles struct {
	bundles map[string]*contracts.EvidenceBundle
}

func (b *fakeBundles) BuildBundles(ctx context.Context, tickers []string) (map[string]*contracts.EvidenceBundle, error) {
	out := make(map[string]*contracts.EvidenceBundle, len(tickers))
	for _, ticker := range tickers {
		out[ticker] = b.bundles[ticker]
	}
	return out, nil
}

type fakeSnapshotStore struct {
	saved *contracts.RankedSnapshot
}

func (s *fakeSnapshotStore) SaveSnapshot(ctx context.Context, snapshot *contracts.RankedSnapshot) error {
	s.saved = snapshot
	return nil
}

func universeOf(symbols ...string) *contracts.UniverseSnapshot {
	candidates := make([]contracts.CandidateTicker, len(symbols))
	for i, s := range symbols {
		candidates[i] = contracts.CandidateTicker{Symbol: s}
	}
	return &contracts.UniverseSnapshot{
		ID:         "univ-20260302",
		Candidates: candidates,
	}
}

func newTestRanker(universe UniverseSource, bundles BatchBundleSource, store SnapshotStore) *Ranker {
	cfg := testScoringConfig()
	scorer := NewScorer(nil, DefaultScoringTables(), cfg, logger.NewNop())
	ranker := NewRanker(universe, bundles, scorer, store, cfg, logger.NewNop())
	ranker.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	return ranker
}

func TestRankUniverse_NoUniverse(t *testing.T) {
	ranker := newTestRanker(&fakeUniverse{}, &fakeBundles{}, &fakeSnapshotStore{})

	_, err := ranker.RankUniverse(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no universe snapshot")
}

func TestRankUniverse_OrdersAndPersists(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	strong := &contracts.EvidenceBundle{
		Ticker: "GOOD",
		Fundamentals: fundamentalsAt(now.Add(-2*time.Hour), &contracts.FundamentalsEvidence{
			MarketCap:         300_000_000,
			Cash:              150_000_000,
			TotalDebt:         10_000_000,
			OperatingCashFlow: 5_000_000,
		}),
		News: []*contracts.EvidenceItem{
			newsAt(now.Add(-3*time.Hour), "Good Bio reports positive phase 3 trial results", "Reuters"),
		},
	}

	store := &fakeSnapshotStore{}
	ranker := newTestRanker(
		&fakeUniverse{snapshot: universeOf("NONE", "GOOD")},
		&fakeBundles{bundles: map[string]*contracts.EvidenceBundle{"GOOD": strong}},
		store,
	)

	snapshot, err := ranker.RankUniverse(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshot.Scores, 2)
	assert.Equal(t, "GOOD", snapshot.Scores[0].Ticker, "scored ticker ranks above the no-evidence ticker")
	assert.Equal(t, "NONE", snapshot.Scores[1].Ticker)
	assert.Equal(t, []string{contracts.ReasonNoEvidence}, snapshot.Scores[1].Reasons)

	assert.Equal(t, "univ-20260302", snapshot.UniverseID)
	assert.Equal(t, "rank-20260302T120000", snapshot.ID)
	assert.Equal(t, 0.40, snapshot.Config.FundamentalsWeight)

	require.NotNil(t, store.saved, "snapshot must be persisted")
	assert.Equal(t, snapshot, store.saved)
}

func TestRankUniverse_TieBreakByTicker(t *testing.T) {
	store := &fakeSnapshotStore{}
	ranker := newTestRanker(
		&fakeUniverse{snapshot: universeOf("ZZZZ", "AAAA", "MMMM")},
		&fakeBundles{},
		store,
	)

	snapshot, err := ranker.RankUniverse(context.Background())
	require.NoError(t, err)

	// All three score identically (no evidence); order falls to ticker
	got := make([]string, len(snapshot.Scores))
	for i, s := range snapshot.Scores {
		got[i] = s.Ticker
	}
	assert.Equal(t, []string{"AAAA", "MMMM", "ZZZZ"}, got)
}

func TestRankUniverse_ScoringPanicDegrades(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	// A nil entry in the news slice blows up item scoring
	poisoned := &contracts.EvidenceBundle{
		Ticker: "BOOM",
		Fundamentals: fundamentalsAt(now.Add(-2*time.Hour), &contracts.FundamentalsEvidence{
			Cash: 100_000_000,
		}),
		News: []*contracts.EvidenceItem{nil},
	}

	store := &fakeSnapshotStore{}
	ranker := newTestRanker(
		&fakeUniverse{snapshot: universeOf("BOOM", "OKAY")},
		&fakeBundles{bundles: map[string]*contracts.EvidenceBundle{"BOOM": poisoned}},
		store,
	)

	snapshot, err := ranker.RankUniverse(context.Background())
	require.NoError(t, err, "a scoring failure must not abort the run")

	var boom *contracts.RankedScore
	for i := range snapshot.Scores {
		if snapshot.Scores[i].Ticker == "BOOM" {
			boom = &snapshot.Scores[i]
		}
	}
	require.NotNil(t, boom)
	assert.Equal(t, []string{contracts.ReasonScoringError}, boom.Reasons)
	assert.Equal(t, penaltyScoringError, boom.RiskPenalty)
	assert.Zero(t, boom.Composite)
}
