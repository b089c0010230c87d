package evidence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmercer/biosift/internal/contracts"
	"github.com/dmercer/biosift/pkg/config"
	"github.com/dmercer/biosift/pkg/logger"
)

type fakeStore struct {
	fundamentals map[string]*contracts.EvidenceItem
	news         map[string][]*contracts.EvidenceItem
	failTickers  map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		fundamentals: make(map[string]*contracts.EvidenceItem),
		news:         make(map[string][]*contracts.EvidenceItem),
		failTickers:  make(map[string]bool),
	}
}

func (s *fakeStore) LatestFundamentals(ctx context.Context, ticker string) (*contracts.EvidenceItem, error) {
	if s.failTickers[ticker] {
		return nil, fmt.Errorf("store unavailable")
	}
	return s.fundamentals[ticker], nil
}

func (s *fakeStore) RecentNews(ctx context.Context, ticker string, limit int) ([]*contracts.EvidenceItem, error) {
	if s.failTickers[ticker] {
		return nil, fmt.Errorf("store unavailable")
	}
	items := s.news[ticker]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func fundamentalsItem(ticker string, ingestedAt time.Time) *contracts.EvidenceItem {
	return &contracts.EvidenceItem{
		Ticker:       ticker,
		Kind:         contracts.KindFundamentals,
		IngestedAt:   ingestedAt,
		Fundamentals: &contracts.FundamentalsEvidence{Cash: 100_000_000},
	}
}

func newsItem(ticker string, publishedAt time.Time) *contracts.EvidenceItem {
	return &contracts.EvidenceItem{
		Ticker:     ticker,
		Kind:       contracts.KindNews,
		IngestedAt: publishedAt.Add(time.Hour),
		News: &contracts.NewsEvidence{
			Headline:    "Some headline",
			PublishedAt: publishedAt,
			URL:         "https://example.com/a",
		},
	}
}

func newTestAssembler(store Store, now time.Time) *Assembler {
	cfg := config.IngestionConfig{
		NewsPerTicker:        10,
		FundamentalsStaleAge: 168 * time.Hour,
		NewsStaleAge:         24 * time.Hour,
	}
	a := NewAssembler(store, cfg, logger.NewNop())
	a.now = func() time.Time { return now }
	return a
}

func TestAssembler_BuildBundle(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.fundamentals["AAAA"] = fundamentalsItem("AAAA", now.Add(-2*time.Hour))
	store.news["AAAA"] = []*contracts.EvidenceItem{
		newsItem("AAAA", now.Add(-6*time.Hour)),
		newsItem("AAAA", now.Add(-30*time.Hour)), // past the news gate
	}

	assembler := newTestAssembler(store, now)

	bundle, err := assembler.BuildBundle(context.Background(), "AAAA")
	require.NoError(t, err)
	require.NotNil(t, bundle)

	assert.Equal(t, "AAAA", bundle.Ticker)
	assert.NotNil(t, bundle.Fundamentals)
	assert.Len(t, bundle.News, 1, "stale news must be filtered out")
	assert.Equal(t, 2, bundle.Count())
}

func TestAssembler_NilWhenFundamentalsMissing(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.news["AAAA"] = []*contracts.EvidenceItem{newsItem("AAAA", now.Add(-time.Hour))}

	assembler := newTestAssembler(store, now)

	bundle, err := assembler.BuildBundle(context.Background(), "AAAA")
	require.NoError(t, err)
	assert.Nil(t, bundle, "fresh news without fundamentals is insufficient")
}

func TestAssembler_NilWhenFundamentalsStale(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.fundamentals["AAAA"] = fundamentalsItem("AAAA", now.Add(-8*24*time.Hour))
	store.news["AAAA"] = []*contracts.EvidenceItem{newsItem("AAAA", now.Add(-time.Hour))}

	assembler := newTestAssembler(store, now)

	bundle, err := assembler.BuildBundle(context.Background(), "AAAA")
	require.NoError(t, err)
	assert.Nil(t, bundle, "stale fundamentals never fall back to older data")
}

func TestAssembler_NilWhenNoFreshNews(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.fundamentals["AAAA"] = fundamentalsItem("AAAA", now.Add(-time.Hour))
	store.news["AAAA"] = []*contracts.EvidenceItem{newsItem("AAAA", now.Add(-48*time.Hour))}

	assembler := newTestAssembler(store, now)

	bundle, err := assembler.BuildBundle(context.Background(), "AAAA")
	require.NoError(t, err)
	assert.Nil(t, bundle)
}

func TestAssembler_BuildBundles(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.fundamentals["AAAA"] = fundamentalsItem("AAAA", now.Add(-time.Hour))
	store.news["AAAA"] = []*contracts.EvidenceItem{newsItem("AAAA", now.Add(-time.Hour))}
	// BBBB has nothing; CCCC's reads fail
	store.failTickers["CCCC"] = true

	assembler := newTestAssembler(store, now)

	bundles, err := assembler.BuildBundles(context.Background(), []string{"AAAA", "BBBB", "CCCC"})
	require.NoError(t, err)
	require.Len(t, bundles, 3)

	assert.NotNil(t, bundles["AAAA"])
	assert.Nil(t, bundles["BBBB"])
	assert.Nil(t, bundles["CCCC"], "a read failure drops only its own ticker")
}
