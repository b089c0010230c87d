package evidence

import (
	"context"
	"sync"
	"time"

	"github.com/dmercer/biosift/internal/contracts"
	"github.com/dmercer/biosift/pkg/config"
	"github.com/dmercer/biosift/pkg/logger"
)

const bundleChunkSize = 25

// Store is the evidence store surface the assembler depends on
type Store interface {
	LatestFundamentals(ctx context.Context, ticker string) (*contracts.EvidenceItem, error)
	RecentNews(ctx context.Context, ticker string, limit int) ([]*contracts.EvidenceItem, error)
}

// Assembler builds recency-gated evidence bundles. Staleness is re-derived
// from the clock on every call; there is no fallback to older data.
type Assembler struct {
	store  Store
	config config.IngestionConfig
	logger *logger.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewAssembler creates a new evidence assembler
func NewAssembler(store Store, cfg config.IngestionConfig, log *logger.Logger) *Assembler {
	return &Assembler{
		store:  store,
		config: cfg,
		logger: log.WithField("module", "evidence"),
		now:    time.Now,
	}
}

// BuildBundle returns the ticker's evidence bundle, or nil when the ticker
// lacks a fresh fundamentals snapshot or any fresh news. A nil bundle
// excludes the ticker from ranking and research for this cycle.
func (a *Assembler) BuildBundle(ctx context.Context, ticker string) (*contracts.EvidenceBundle, error) {
	now := a.now()

	fundamentals, err := a.store.LatestFundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if fundamentals == nil || fundamentals.IsStale(now, a.config.FundamentalsStaleAge, a.config.NewsStaleAge) {
		return nil, nil
	}

	newsItems, err := a.store.RecentNews(ctx, ticker, a.config.NewsPerTicker)
	if err != nil {
		return nil, err
	}

	fresh := make([]*contracts.EvidenceItem, 0, len(newsItems))
	for _, item := range newsItems {
		if item.IsStale(now, a.config.FundamentalsStaleAge, a.config.NewsStaleAge) {
			continue
		}
		fresh = append(fresh, item)
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	return &contracts.EvidenceBundle{
		Ticker:       ticker,
		Fundamentals: fundamentals,
		News:         fresh,
	}, nil
}

// BuildBundles builds bundles for many tickers, reading the store in
// fixed-size chunks to bound concurrent reads. Tickers without sufficient
// fresh evidence map to nil; a read failure drops only its own ticker.
func (a *Assembler) BuildBundles(ctx context.Context, tickers []string) (map[string]*contracts.EvidenceBundle, error) {
	bundles := make(map[string]*contracts.EvidenceBundle, len(tickers))
	var mu sync.Mutex

	for start := 0; start < len(tickers); start += bundleChunkSize {
		end := start + bundleChunkSize
		if end > len(tickers) {
			end = len(tickers)
		}

		var wg sync.WaitGroup
		for _, ticker := range tickers[start:end] {
			wg.Add(1)
			go func(ticker string) {
				defer wg.Done()

				bundle, err := a.BuildBundle(ctx, ticker)
				if err != nil {
					a.logger.WithError(err).WithField("ticker", ticker).Warn("Bundle build failed")
					bundle = nil
				}

				mu.Lock()
				bundles[ticker] = bundle
				mu.Unlock()
			}(ticker)
		}
		wg.Wait()
	}

	sufficient := 0
	for _, bundle := range bundles {
		if bundle != nil {
			sufficient++
		}
	}
	a.logger.WithFields(map[string]interface{}{
		"tickers":    len(tickers),
		"sufficient": sufficient,
	}).Debug("Bundles assembled")

	return bundles, nil
}
