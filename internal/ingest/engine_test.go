package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmercer/biosift/internal/contracts"
	"github.com/dmercer/biosift/internal/external/fmp"
	"github.com/dmercer/biosift/pkg/config"
	"github.com/dmercer/biosift/pkg/logger"
	"github.com/dmercer/biosift/pkg/ratelimit"
)

type fakeProvider struct {
	mu sync.Mutex

	fundamentals     map[string]*fmp.FundamentalsData
	fundamentalsErr  map[string]error
	news             map[string][]fmp.NewsItem
	fundamentalCalls map[string]int
	newsCalls        map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		fundamentals:     make(map[string]*fmp.FundamentalsData),
		fundamentalsErr:  make(map[string]error),
		news:             make(map[string][]fmp.NewsItem),
		fundamentalCalls: make(map[string]int),
		newsCalls:        make(map[string]int),
	}
}

func (p *fakeProvider) FetchFundamentals(ctx context.Context, symbol string) (*fmp.FundamentalsData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fundamentalCalls[symbol]++
	if err, ok := p.fundamentalsErr[symbol]; ok {
		return nil, err
	}
	if data, ok := p.fundamentals[symbol]; ok {
		return data, nil
	}
	return &fmp.FundamentalsData{Symbol: symbol, MarketCap: 200_000_000, Cash: 80_000_000}, nil
}

func (p *fakeProvider) FetchNews(ctx context.Context, symbol string, from, to time.Time, limit int) ([]fmp.NewsItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.newsCalls[symbol]++
	return p.news[symbol], nil
}

type fakeStore struct {
	mu sync.Mutex

	saved        []*contracts.EvidenceItem
	latest       map[string]*contracts.EvidenceItem
	existingNews map[string]bool
	ordered      []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		latest:       make(map[string]*contracts.EvidenceItem),
		existingNews: make(map[string]bool),
	}
}

func newsKey(ticker, url string, publishedAt time.Time) string {
	return fmt.Sprintf("%s|%s|%d", ticker, url, publishedAt.Unix())
}

func (s *fakeStore) SaveEvidence(ctx context.Context, item *contracts.EvidenceItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, item)
	if item.Kind == contracts.KindNews {
		s.existingNews[newsKey(item.Ticker, item.News.URL, item.News.PublishedAt)] = true
	}
	return nil
}

func (s *fakeStore) NewsExists(ctx context.Context, ticker, url string, publishedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existingNews[newsKey(ticker, url, publishedAt)], nil
}

func (s *fakeStore) LatestFundamentals(ctx context.Context, ticker string) (*contracts.EvidenceItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[ticker], nil
}

func (s *fakeStore) OrderByStalestFundamentals(ctx context.Context, tickers []string, cap int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ordered != nil {
		if len(s.ordered) > cap {
			return s.ordered[:cap], nil
		}
		return s.ordered, nil
	}
	if len(tickers) > cap {
		return tickers[:cap], nil
	}
	return tickers, nil
}

func (s *fakeStore) savedByKind(kind contracts.EvidenceKind) []*contracts.EvidenceItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]*contracts.EvidenceItem, 0)
	for _, item := range s.saved {
		if item.Kind == kind {
			items = append(items, item)
		}
	}
	return items
}

type fakeUniverse struct {
	snapshot *contracts.UniverseSnapshot
}

func (u *fakeUniverse) GetLatestSnapshot(ctx context.Context) (*contracts.UniverseSnapshot, error) {
	return u.snapshot, nil
}

func testIngestionConfig() config.IngestionConfig {
	return config.IngestionConfig{
		MaxTickersPerRun:     150,
		BatchSize:            2,
		Workers:              2,
		NewsPerTicker:        10,
		NewsLookbackDays:     7,
		RateLimitPerMinute:   10_000,
		FundamentalsStaleAge: 168 * time.Hour,
		NewsStaleAge:         24 * time.Hour,
	}
}

func newTestEngine(provider Provider, store Store, universe UniverseSource, cfg config.IngestionConfig) *Engine {
	limiter := ratelimit.NewWindowLimiter(cfg.RateLimitPerMinute, time.Minute)
	return NewEngine(provider, store, universe, limiter, cfg, logger.NewNop())
}

func TestEngine_RunIngestion_ExplicitTickers(t *testing.T) {
	provider := newFakeProvider()
	store := newFakeStore()
	engine := newTestEngine(provider, store, &fakeUniverse{}, testIngestionConfig())

	report, err := engine.RunIngestion(context.Background(), []string{"AAAA", "BBBB", "CCCC"})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TickersPlanned)
	assert.Equal(t, 3, report.Fundamentals.Processed)
	assert.Zero(t, report.Fundamentals.Errored)
	assert.Len(t, store.savedByKind(contracts.KindFundamentals), 3)
}

func TestEngine_RunIngestion_UsesLatestUniverse(t *testing.T) {
	provider := newFakeProvider()
	store := newFakeStore()
	universe := &fakeUniverse{
		snapshot: &contracts.UniverseSnapshot{
			ID: "univ-20260302",
			Candidates: []contracts.CandidateTicker{
				{Symbol: "AAAA"},
				{Symbol: "BBBB"},
			},
		},
	}
	engine := newTestEngine(provider, store, universe, testIngestionConfig())

	report, err := engine.RunIngestion(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TickersPlanned)
}

func TestEngine_RunIngestion_NoUniverse(t *testing.T) {
	engine := newTestEngine(newFakeProvider(), newFakeStore(), &fakeUniverse{}, testIngestionConfig())

	_, err := engine.RunIngestion(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no universe snapshot")
}

func TestEngine_RunIngestion_CapsPlannedTickers(t *testing.T) {
	cfg := testIngestionConfig()
	cfg.MaxTickersPerRun = 3

	tickers := make([]string, 10)
	for i := range tickers {
		tickers[i] = fmt.Sprintf("TK%02d", i)
	}

	provider := newFakeProvider()
	store := newFakeStore()
	engine := newTestEngine(provider, store, &fakeUniverse{}, cfg)

	report, err := engine.RunIngestion(context.Background(), tickers)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TickersPlanned)
	assert.Len(t, store.savedByKind(contracts.KindFundamentals), 3)
}

func TestEngine_SkipsFreshFundamentals(t *testing.T) {
	provider := newFakeProvider()
	store := newFakeStore()
	store.latest["AAAA"] = &contracts.EvidenceItem{
		Ticker:     "AAAA",
		Kind:       contracts.KindFundamentals,
		IngestedAt: time.Now().Add(-time.Hour),
	}
	engine := newTestEngine(provider, store, &fakeUniverse{}, testIngestionConfig())

	report, err := engine.RunIngestion(context.Background(), []string{"AAAA"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Fundamentals.Skipped)
	assert.Zero(t, report.Fundamentals.Processed)
	assert.Zero(t, provider.fundamentalCalls["AAAA"], "fresh fundamentals must not trigger a fetch")
}

func TestEngine_RefreshesStaleFundamentals(t *testing.T) {
	provider := newFakeProvider()
	store := newFakeStore()
	store.latest["AAAA"] = &contracts.EvidenceItem{
		Ticker:     "AAAA",
		Kind:       contracts.KindFundamentals,
		IngestedAt: time.Now().Add(-200 * time.Hour),
	}
	engine := newTestEngine(provider, store, &fakeUniverse{}, testIngestionConfig())

	report, err := engine.RunIngestion(context.Background(), []string{"AAAA"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Fundamentals.Processed)
	assert.Equal(t, 1, provider.fundamentalCalls["AAAA"])
}

func TestEngine_NewsDeduplication(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	provider := newFakeProvider()
	provider.news["AAAA"] = []fmp.NewsItem{
		{Symbol: "AAAA", Headline: "Old story", URL: "https://example.com/old", PublishedAt: now.Add(-2 * time.Hour)},
		{Symbol: "AAAA", Headline: "New story", URL: "https://example.com/new", PublishedAt: now.Add(-time.Hour)},
	}

	store := newFakeStore()
	store.existingNews[newsKey("AAAA", "https://example.com/old", now.Add(-2*time.Hour))] = true

	engine := newTestEngine(provider, store, &fakeUniverse{}, testIngestionConfig())

	report, err := engine.RunIngestion(context.Background(), []string{"AAAA"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.NewsDuplicates)
	assert.Equal(t, 1, report.News.Processed)

	saved := store.savedByKind(contracts.KindNews)
	require.Len(t, saved, 1)
	assert.Equal(t, "https://example.com/new", saved[0].News.URL)
}

func TestEngine_NewsAllDuplicatesCountsAsSkipped(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	provider := newFakeProvider()
	provider.news["AAAA"] = []fmp.NewsItem{
		{Symbol: "AAAA", Headline: "Seen", URL: "https://example.com/seen", PublishedAt: now},
	}

	store := newFakeStore()
	store.existingNews[newsKey("AAAA", "https://example.com/seen", now)] = true

	engine := newTestEngine(provider, store, &fakeUniverse{}, testIngestionConfig())

	report, err := engine.RunIngestion(context.Background(), []string{"AAAA"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.News.Skipped)
	assert.Zero(t, report.News.Processed)
	assert.Empty(t, store.savedByKind(contracts.KindNews))
}

func TestEngine_TickerFailureDoesNotAbortRun(t *testing.T) {
	provider := newFakeProvider()
	provider.fundamentalsErr["BBBB"] = fmt.Errorf("provider exploded")

	store := newFakeStore()
	engine := newTestEngine(provider, store, &fakeUniverse{}, testIngestionConfig())

	report, err := engine.RunIngestion(context.Background(), []string{"AAAA", "BBBB", "CCCC"})
	require.NoError(t, err, "one ticker's failure must not abort the run")

	assert.Equal(t, 2, report.Fundamentals.Processed)
	assert.Equal(t, 1, report.Fundamentals.Errored)
}

func TestNewFundamentalsItem_DerivedFields(t *testing.T) {
	ingestedAt := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	// OCF -9M, CapEx -3M: quarterly burn 12M, monthly 4M, runway 20 months
	data := &fmp.FundamentalsData{
		Symbol:            "AAAA",
		MarketCap:         60_000_000,
		Cash:              80_000_000,
		TotalDebt:         5_000_000,
		OperatingCashFlow: -9_000_000,
		CapEx:             -3_000_000,
	}

	item := newFundamentalsItem(data, ingestedAt)
	require.NotNil(t, item.Fundamentals)

	f := item.Fundamentals
	assert.InDelta(t, 4_000_000, f.MonthlyBurn, 1)
	assert.InDelta(t, 20, f.CashRunwayMonths, 0.01)
	assert.Equal(t, int64(75_000_000), f.NetCash())
	assert.True(t, f.BelowNetCash, "market cap below net cash should be flagged")
	assert.Equal(t, contracts.KindFundamentals, item.Kind)
	assert.Equal(t, "fmp", item.SourceID)
}

func TestNewFundamentalsItem_PositiveCashFlowNoBurn(t *testing.T) {
	data := &fmp.FundamentalsData{
		Symbol:            "BBBB",
		MarketCap:         500_000_000,
		Cash:              50_000_000,
		OperatingCashFlow: 10_000_000,
		CapEx:             -2_000_000,
	}

	item := newFundamentalsItem(data, time.Now())
	assert.Zero(t, item.Fundamentals.MonthlyBurn)
	assert.Zero(t, item.Fundamentals.CashRunwayMonths)
}

func TestChunk(t *testing.T) {
	batches := chunk([]string{"A", "B", "C", "D", "E"}, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"A", "B"}, batches[0])
	assert.Equal(t, []string{"E"}, batches[2])

	assert.Empty(t, chunk(nil, 2))
	assert.Len(t, chunk([]string{"A", "B"}, 0), 2, "non-positive size falls back to 1")
}
