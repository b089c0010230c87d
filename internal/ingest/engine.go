package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmercer/biosift/internal/contracts"
	"github.com/dmercer/biosift/internal/external/fmp"
	"github.com/dmercer/biosift/pkg/config"
	"github.com/dmercer/biosift/pkg/logger"
	"github.com/dmercer/biosift/pkg/ratelimit"
)

// Provider is the evidence provider surface the engine depends on
type Provider interface {
	FetchFundamentals(ctx context.Context, symbol string) (*fmp.FundamentalsData, error)
	FetchNews(ctx context.Context, symbol string, from, to time.Time, limit int) ([]fmp.NewsItem, error)
}

// Store is the evidence store surface the engine depends on
type Store interface {
	SaveEvidence(ctx context.Context, item *contracts.EvidenceItem) error
	NewsExists(ctx context.Context, ticker, url string, publishedAt time.Time) (bool, error)
	LatestFundamentals(ctx context.Context, ticker string) (*contracts.EvidenceItem, error)
	OrderByStalestFundamentals(ctx context.Context, tickers []string, cap int) ([]string, error)
}

// UniverseSource supplies the candidate list when no explicit tickers are given
type UniverseSource interface {
	GetLatestSnapshot(ctx context.Context) (*contracts.UniverseSnapshot, error)
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeErrored
)

// tickerResult is one ticker's ingestion outcome, fanned into the report
type tickerResult struct {
	Ticker       string
	Fundamentals outcome
	News         outcome
	NewsDupes    int
}

// Engine ingests fundamentals and news evidence under a shared rate budget
type Engine struct {
	provider Provider
	store    Store
	universe UniverseSource
	limiter  *ratelimit.WindowLimiter
	config   config.IngestionConfig
	logger   *logger.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewEngine creates a new ingestion engine. The limiter is the one piece
// of shared mutable state; every worker blocks on it.
func NewEngine(provider Provider, store Store, universe UniverseSource, limiter *ratelimit.WindowLimiter, cfg config.IngestionConfig, log *logger.Logger) *Engine {
	return &Engine{
		provider: provider,
		store:    store,
		universe: universe,
		limiter:  limiter,
		config:   cfg,
		logger:   log.WithField("module", "ingest"),
		now:      time.Now,
	}
}

// RunIngestion ingests evidence for the given tickers, or for the latest
// universe snapshot when tickers is empty. Tickers are processed
// stalest-fundamentals-first and capped per run; a single ticker's failure
// never aborts the run.
func (e *Engine) RunIngestion(ctx context.Context, tickers []string) (*contracts.IngestionReport, error) {
	startedAt := e.now()

	if len(tickers) == 0 {
		snapshot, err := e.universe.GetLatestSnapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("load latest universe: %w", err)
		}
		if snapshot == nil {
			return nil, fmt.Errorf("no universe snapshot exists")
		}
		tickers = snapshot.Symbols()
	}

	ordered, err := e.store.OrderByStalestFundamentals(ctx, tickers, e.config.MaxTickersPerRun)
	if err != nil {
		return nil, fmt.Errorf("prioritize tickers: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"candidates": len(tickers),
		"planned":    len(ordered),
		"workers":    e.config.Workers,
		"batch_size": e.config.BatchSize,
	}).Info("Starting ingestion run")

	batches := chunk(ordered, e.config.BatchSize)
	batchCh := make(chan []string, len(batches))
	resultCh := make(chan tickerResult, len(ordered))

	var wg sync.WaitGroup
	workers := e.config.Workers
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batchCh {
				for _, ticker := range batch {
					select {
					case <-ctx.Done():
						resultCh <- tickerResult{Ticker: ticker, Fundamentals: outcomeErrored, News: outcomeErrored}
						continue
					default:
					}
					resultCh <- e.ingestTicker(ctx, ticker)
				}
			}
		}()
	}

	for _, batch := range batches {
		batchCh <- batch
	}
	close(batchCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	report := &contracts.IngestionReport{
		StartedAt:      startedAt,
		TickersPlanned: len(ordered),
	}
	for result := range resultCh {
		tally(&report.Fundamentals, result.Fundamentals)
		tally(&report.News, result.News)
		report.NewsDuplicates += result.NewsDupes
	}
	report.FinishedAt = e.now()

	e.logger.WithFields(map[string]interface{}{
		"planned":           report.TickersPlanned,
		"fund_processed":    report.Fundamentals.Processed,
		"fund_skipped":      report.Fundamentals.Skipped,
		"fund_errored":      report.Fundamentals.Errored,
		"news_processed":    report.News.Processed,
		"news_skipped":      report.News.Skipped,
		"news_errored":      report.News.Errored,
		"news_duplicates":   report.NewsDuplicates,
		"duration":          report.Duration(),
	}).Info("Ingestion run completed")

	return report, nil
}

// ingestTicker ingests both evidence variants for one ticker
func (e *Engine) ingestTicker(ctx context.Context, ticker string) tickerResult {
	result := tickerResult{Ticker: ticker}
	result.Fundamentals = e.ingestFundamentals(ctx, ticker)
	result.News, result.NewsDupes = e.ingestNews(ctx, ticker)
	return result
}

// ingestFundamentals fetches and persists fundamentals unless a non-stale
// record already exists
func (e *Engine) ingestFundamentals(ctx context.Context, ticker string) outcome {
	existing, err := e.store.LatestFundamentals(ctx, ticker)
	if err != nil {
		e.logger.WithError(err).WithField("ticker", ticker).Error("Failed to read latest fundamentals")
		return outcomeErrored
	}

	now := e.now()
	if existing != nil && !existing.IsStale(now, e.config.FundamentalsStaleAge, e.config.NewsStaleAge) {
		return outcomeSkipped
	}

	if err := e.acquire(ctx, fmp.RequestsPerFundamentals); err != nil {
		e.logger.WithError(err).WithField("ticker", ticker).Error("Rate limit wait aborted")
		return outcomeErrored
	}

	data, err := e.provider.FetchFundamentals(ctx, ticker)
	if err != nil {
		e.logger.WithError(err).WithField("ticker", ticker).Warn("Fundamentals fetch failed")
		return outcomeErrored
	}

	item := newFundamentalsItem(data, e.now())
	if err := e.store.SaveEvidence(ctx, item); err != nil {
		e.logger.WithError(err).WithField("ticker", ticker).Error("Failed to save fundamentals")
		return outcomeErrored
	}

	return outcomeProcessed
}

// ingestNews fetches recent news and persists items not already stored.
// Returns the outcome and the number of duplicates skipped.
func (e *Engine) ingestNews(ctx context.Context, ticker string) (outcome, int) {
	if err := e.acquire(ctx, fmp.RequestsPerNews); err != nil {
		e.logger.WithError(err).WithField("ticker", ticker).Error("Rate limit wait aborted")
		return outcomeErrored, 0
	}

	now := e.now()
	from := now.AddDate(0, 0, -e.config.NewsLookbackDays)

	items, err := e.provider.FetchNews(ctx, ticker, from, now, e.config.NewsPerTicker)
	if err != nil {
		e.logger.WithError(err).WithField("ticker", ticker).Warn("News fetch failed")
		return outcomeErrored, 0
	}

	saved := 0
	dupes := 0
	for _, newsItem := range items {
		exists, err := e.store.NewsExists(ctx, ticker, newsItem.URL, newsItem.PublishedAt)
		if err != nil {
			e.logger.WithError(err).WithField("ticker", ticker).Error("Duplicate check failed")
			continue
		}
		if exists {
			dupes++
			continue
		}

		item := newNewsItem(ticker, newsItem, e.now())
		if err := e.store.SaveEvidence(ctx, item); err != nil {
			e.logger.WithError(err).WithField("ticker", ticker).Error("Failed to save news item")
			continue
		}
		saved++
	}

	if saved == 0 {
		return outcomeSkipped, dupes
	}
	return outcomeProcessed, dupes
}

// acquire blocks until n rate-limit slots are available
func (e *Engine) acquire(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// newFundamentalsItem normalizes a provider fundamentals record into an
// evidence item with derived burn/runway fields
func newFundamentalsItem(data *fmp.FundamentalsData, ingestedAt time.Time) *contracts.EvidenceItem {
	evidence := &contracts.FundamentalsEvidence{
		AsOf:              data.AsOf,
		MarketCap:         data.MarketCap,
		SharesOutstanding: data.SharesOutstanding,
		Cash:              data.Cash,
		TotalDebt:         data.TotalDebt,
		OperatingCashFlow: data.OperatingCashFlow,
		CapEx:             data.CapEx,
		Revenue:           data.Revenue,
	}

	// Capital expenditure is reported negative, so free cash flow is a sum
	quarterlyFCF := float64(data.OperatingCashFlow + data.CapEx)
	if quarterlyFCF < 0 {
		evidence.MonthlyBurn = -quarterlyFCF / 3
		if evidence.MonthlyBurn > 0 {
			evidence.CashRunwayMonths = float64(data.Cash) / evidence.MonthlyBurn
		}
	}
	evidence.BelowNetCash = data.MarketCap > 0 && data.MarketCap < evidence.NetCash()

	return &contracts.EvidenceItem{
		Ticker:       data.Symbol,
		Kind:         contracts.KindFundamentals,
		IngestedAt:   ingestedAt,
		SourceID:     "fmp",
		Raw:          capRaw(data),
		Fundamentals: evidence,
	}
}

// newNewsItem normalizes a provider news record into an evidence item
func newNewsItem(ticker string, data fmp.NewsItem, ingestedAt time.Time) *contracts.EvidenceItem {
	return &contracts.EvidenceItem{
		Ticker:     ticker,
		Kind:       contracts.KindNews,
		IngestedAt: ingestedAt,
		SourceID:   "fmp",
		Raw:        capRaw(data),
		News: &contracts.NewsEvidence{
			Headline:    data.Headline,
			Snippet:     data.Snippet,
			Source:      data.Source,
			PublishedAt: data.PublishedAt,
			URL:         data.URL,
		},
	}
}

// capRaw keeps the raw provider payload only when it fits the size cap
func capRaw(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil || len(raw) > contracts.MaxRawPayloadBytes {
		return nil
	}
	return raw
}

// tally folds one outcome into the variant counts
func tally(counts *contracts.VariantCounts, o outcome) {
	switch o {
	case outcomeProcessed:
		counts.Processed++
	case outcomeSkipped:
		counts.Skipped++
	case outcomeErrored:
		counts.Errored++
	}
}

// chunk splits tickers into fixed-size batches
func chunk(tickers []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	batches := make([][]string, 0, (len(tickers)+size-1)/size)
	for start := 0; start < len(tickers); start += size {
		end := start + size
		if end > len(tickers) {
			end = len(tickers)
		}
		batches = append(batches, tickers[start:end])
	}
	return batches
}
