package universe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmercer/biosift/internal/contracts"
	"github.com/dmercer/biosift/internal/external/fmp"
	"github.com/dmercer/biosift/internal/external/yahoo"
	"github.com/dmercer/biosift/pkg/config"
	"github.com/dmercer/biosift/pkg/logger"
	"github.com/dmercer/biosift/pkg/redis"
)

// Over-the-counter venues reported by the screener
var otcExchanges = map[string]bool{
	"OTC":    true,
	"PNK":    true,
	"OTCBB":  true,
	"OTCQB":  true,
	"OTCQX":  true,
}

// Depositary receipt markers in company names
var adrMarkers = []string{"ADR", "ADS", "AMERICAN DEPOSITARY", "DEPOSITARY RECEIPT", "DEPOSITARY SHARE"}

const (
	screenerLimit    = 5000
	screenerCacheTTL = time.Hour
	advCandleRange   = "1mo"
	advVolumeDays    = 20
	advMinCandles    = 5
)

// Builder constructs the daily candidate universe
type Builder struct {
	screener *fmp.Client
	quotes   *yahoo.Client
	repo     *Repository
	cache    *redis.Cache
	config   config.UniverseConfig
	logger   *logger.Logger
}

// NewBuilder creates a new universe Builder
func NewBuilder(screener *fmp.Client, quotes *yahoo.Client, repo *Repository, cache *redis.Cache, cfg config.UniverseConfig, log *logger.Logger) *Builder {
	return &Builder{
		screener: screener,
		quotes:   quotes,
		repo:     repo,
		cache:    cache,
		config:   cfg,
		logger:   log.WithField("module", "universe"),
	}
}

// quoteCheck is the per-symbol outcome of validation plus ADV approximation
type quoteCheck struct {
	symbol   string
	valid    bool
	adv      float64
	advKnown bool
	err      error
}

// BuildUniverse screens, filters, validates, and persists the candidate list.
// A screener failure is fatal; individual validation failures only shrink
// the candidate set.
func (b *Builder) BuildUniverse(ctx context.Context) (*contracts.UniverseSnapshot, error) {
	buildDate := time.Now().UTC().Truncate(24 * time.Hour)

	rows, err := b.fetchScreener(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch screener: %w", err)
	}

	snapshot := &contracts.UniverseSnapshot{
		ID:        fmt.Sprintf("univ-%s", buildDate.Format("20060102")),
		BuildDate: buildDate,
		Filters: contracts.FilterParams{
			MinPrice:        b.config.MinPrice,
			MarketCapLow:    b.config.MarketCapLow,
			MarketCapHigh:   b.config.MarketCapHigh,
			MinDollarVolume: b.config.MinDollarVolume,
			Exchanges:       b.config.Exchanges,
			SectorKeywords:  b.config.SectorKeywords,
		},
		Excluded: make(map[string]string),
	}

	// Static filters: sector keywords, exchange allow-list, OTC/ADR exclusion
	prefiltered := make(map[string]fmp.ScreenerRow)
	for _, row := range rows {
		symbol := strings.ToUpper(strings.TrimSpace(row.Symbol))
		if symbol == "" {
			continue
		}
		if _, seen := prefiltered[symbol]; seen {
			continue
		}

		if reason := b.checkExclusion(row); reason != "" {
			snapshot.Excluded[symbol] = reason
			continue
		}
		prefiltered[symbol] = row
	}

	b.logger.WithFields(map[string]interface{}{
		"screened":    len(rows),
		"prefiltered": len(prefiltered),
		"excluded":    len(snapshot.Excluded),
	}).Info("Static filters applied")

	// Validation + ADV against the independent quote source
	checks := b.runQuoteChecks(ctx, prefiltered)

	candidates := make([]contracts.CandidateTicker, 0, len(prefiltered))
	for symbol, row := range prefiltered {
		check, ok := checks[symbol]
		if !ok || !check.valid {
			snapshot.Excluded[symbol] = "validation_failed"
			continue
		}

		// Liquidity filter applies only where ADV was computable (fail open)
		if check.advKnown && check.adv < b.config.MinDollarVolume {
			snapshot.Excluded[symbol] = "liquidity"
			continue
		}
		if !check.advKnown {
			b.logger.WithField("symbol", symbol).Warn("ADV unavailable, retaining ticker without liquidity filter")
		}

		candidates = append(candidates, contracts.CandidateTicker{
			Symbol:          symbol,
			CompanyName:     row.CompanyName,
			MarketCap:       row.MarketCap,
			Price:           row.Price,
			AvgDollarVolume: check.adv,
			ADVKnown:        check.advKnown,
			Exchange:        row.ExchangeShortName,
			Sector:          row.Sector,
			Industry:        row.Industry,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Symbol < candidates[j].Symbol
	})
	snapshot.Candidates = candidates

	if err := b.repo.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save universe snapshot: %w", err)
	}

	b.logger.WithFields(map[string]interface{}{
		"snapshot_id": snapshot.ID,
		"candidates":  len(candidates),
		"excluded":    len(snapshot.Excluded),
	}).Info("Universe build completed")

	return snapshot, nil
}

// fetchScreener pulls the broad screener set, caching results to keep
// re-runs inside the provider budget
func (b *Builder) fetchScreener(ctx context.Context) ([]fmp.ScreenerRow, error) {
	cacheKey := fmt.Sprintf("screener:%d:%d:%.2f",
		b.config.MarketCapLow, b.config.MarketCapHigh, b.config.MinPrice)

	var rows []fmp.ScreenerRow
	if found, err := b.cache.Get(ctx, cacheKey, &rows); err == nil && found && len(rows) > 0 {
		b.logger.WithField("count", len(rows)).Debug("Screener served from cache")
		return rows, nil
	}

	rows, err := b.screener.FetchScreener(ctx, b.config.MinPrice, b.config.MarketCapLow, b.config.MarketCapHigh, screenerLimit)
	if err != nil {
		return nil, err
	}

	if err := b.cache.Set(ctx, cacheKey, rows, screenerCacheTTL); err != nil {
		b.logger.WithError(err).Warn("Failed to cache screener result")
	}

	return rows, nil
}

// checkExclusion applies static filters in priority order.
// Returns empty string when the row passes, otherwise the exclusion reason.
func (b *Builder) checkExclusion(row fmp.ScreenerRow) string {
	if row.IsEtf {
		return "etf"
	}

	if !row.IsActivelyTrading {
		return "inactive"
	}

	if otcExchanges[strings.ToUpper(row.ExchangeShortName)] {
		return "otc"
	}

	upperName := strings.ToUpper(row.CompanyName)
	for _, marker := range adrMarkers {
		if strings.Contains(upperName, marker) {
			return "depositary_receipt"
		}
	}

	exchangeOK := false
	for _, ex := range b.config.Exchanges {
		if strings.EqualFold(ex, row.ExchangeShortName) {
			exchangeOK = true
			break
		}
	}
	if !exchangeOK {
		return fmt.Sprintf("exchange (%s)", row.ExchangeShortName)
	}

	if !b.matchesSectorKeywords(row) {
		return "sector"
	}

	if row.Price < b.config.MinPrice {
		return "price"
	}

	if row.MarketCap < b.config.MarketCapLow || row.MarketCap > b.config.MarketCapHigh {
		return "market_cap"
	}

	return ""
}

// matchesSectorKeywords checks the keyword allow-list against industry,
// sector, and company name (case-insensitive substring match)
func (b *Builder) matchesSectorKeywords(row fmp.ScreenerRow) bool {
	haystack := strings.ToLower(row.Industry + " " + row.Sector + " " + row.CompanyName)
	for _, kw := range b.config.SectorKeywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// runQuoteChecks validates symbols and approximates ADV with a bounded
// worker pool. A failure affects only its own symbol.
func (b *Builder) runQuoteChecks(ctx context.Context, rows map[string]fmp.ScreenerRow) map[string]quoteCheck {
	symbolCh := make(chan string, len(rows))
	resultCh := make(chan quoteCheck, len(rows))

	var wg sync.WaitGroup
	workers := b.config.ValidateWorkers
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range symbolCh {
				select {
				case <-ctx.Done():
					resultCh <- quoteCheck{symbol: symbol, err: ctx.Err()}
					return
				default:
				}
				resultCh <- b.checkQuote(ctx, symbol)
			}
		}()
	}

	for symbol := range rows {
		symbolCh <- symbol
	}
	close(symbolCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	checks := make(map[string]quoteCheck, len(rows))
	validCount := 0
	for check := range resultCh {
		checks[check.symbol] = check
		if check.err != nil {
			b.logger.WithError(check.err).WithField("symbol", check.symbol).Warn("Quote check failed")
			continue
		}
		if check.valid {
			validCount++
		}
	}

	b.logger.WithFields(map[string]interface{}{
		"checked": len(checks),
		"valid":   validCount,
	}).Info("Quote validation completed")

	return checks
}

// checkQuote validates one symbol and computes its ADV from recent candles
func (b *Builder) checkQuote(ctx context.Context, symbol string) quoteCheck {
	candles, err := b.quotes.FetchDailyCandles(ctx, symbol, advCandleRange)
	if err == yahoo.ErrSymbolNotFound {
		return quoteCheck{symbol: symbol, valid: false}
	}
	if err != nil {
		return quoteCheck{symbol: symbol, valid: false, err: err}
	}
	if len(candles) == 0 {
		return quoteCheck{symbol: symbol, valid: false}
	}

	check := quoteCheck{symbol: symbol, valid: true}

	if len(candles) < advMinCandles {
		// Too thin a history to trust an average; fail open on liquidity
		return check
	}

	start := 0
	if len(candles) > advVolumeDays {
		start = len(candles) - advVolumeDays
	}

	var totalVolume int64
	for _, candle := range candles[start:] {
		totalVolume += candle.Volume
	}
	meanVolume := float64(totalVolume) / float64(len(candles)-start)
	latestClose := candles[len(candles)-1].Close

	check.adv = meanVolume * latestClose
	check.advKnown = true
	return check
}
