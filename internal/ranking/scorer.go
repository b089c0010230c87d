package ranking

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/dmercer/biosift/internal/contracts"
	"github.com/dmercer/biosift/pkg/config"
	"github.com/dmercer/biosift/pkg/logger"
)

// Fundamentals pillar constants
const (
	fundamentalsBase     = 50.0
	fundamentalsStaleCap = 10.0

	netCashLargeFloor  = 100_000_000 // net cash at or above this earns the full bonus
	netCashMediumFloor = 50_000_000
	netCashSmallFloor  = 10_000_000

	capSweetLow   = 100_000_000
	capSweetHigh  = 1_000_000_000
	capOversized  = 1_500_000_000
	capUndersized = 50_000_000
)

// Risk penalty constants
const (
	penaltyWeakFundamentals = 10.0
	penaltyNoRecentNews     = 5.0
	penaltyAncientEvidence  = 15.0
	penaltyNoEvidence       = 25.0
	penaltyScoringError     = 25.0

	recentNewsWindow   = 30 * 24 * time.Hour
	ancientEvidenceAge = 60 * 24 * time.Hour
	freshEvidenceAge   = 7 * 24 * time.Hour
)

// Reason code thresholds
const (
	strongPillarThreshold = 70.0
	weakPillarThreshold   = 30.0
	richEvidenceCount     = 10
)

// momentumNeutral is the placeholder momentum pillar value, reserved for
// future price/volume momentum
const momentumNeutral = 50.0

// BundleSource supplies evidence bundles for scoring
type BundleSource interface {
	BuildBundle(ctx context.Context, ticker string) (*contracts.EvidenceBundle, error)
}

// Scorer computes deterministic composite scores from evidence bundles.
// Scoring shares no mutable state across tickers, so identical evidence
// always yields identical scores.
type Scorer struct {
	bundles BundleSource
	tables  ScoringTables
	config  config.ScoringConfig
	logger  *logger.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewScorer creates a new scorer
func NewScorer(bundles BundleSource, tables ScoringTables, cfg config.ScoringConfig, log *logger.Logger) *Scorer {
	return &Scorer{
		bundles: bundles,
		tables:  tables,
		config:  cfg,
		logger:  log.WithField("module", "ranking"),
		now:     time.Now,
	}
}

// ComputeCompositeScore fetches the ticker's bundle and scores it
func (s *Scorer) ComputeCompositeScore(ctx context.Context, ticker string) (contracts.RankedScore, error) {
	bundle, err := s.bundles.BuildBundle(ctx, ticker)
	if err != nil {
		return contracts.RankedScore{}, err
	}
	return s.ScoreBundle(ticker, bundle, s.now()), nil
}

// ScoreBundle computes a ticker's ranked score from its bundle. A nil
// bundle is the worst outcome, not a neutral one.
func (s *Scorer) ScoreBundle(ticker string, bundle *contracts.EvidenceBundle, now time.Time) contracts.RankedScore {
	if bundle == nil {
		return contracts.RankedScore{
			Ticker:      ticker,
			Composite:   0,
			RiskPenalty: penaltyNoEvidence,
			Reasons:     []string{contracts.ReasonNoEvidence},
		}
	}

	fundScore := s.scoreFundamentals(bundle.Fundamentals, now)
	newsScore := s.scoreNews(bundle.News, now)
	momentum := momentumNeutral

	latestAt := bundle.LatestEvidenceAt()
	risk := s.riskPenalty(fundScore, bundle.News, latestAt, now)

	composite := fundScore*s.config.FundamentalsWeight +
		newsScore*s.config.NewsWeight +
		momentum*s.config.MomentumWeight -
		risk*s.config.RiskWeight
	composite = clamp(composite, 0, 100)

	return contracts.RankedScore{
		Ticker:            ticker,
		Composite:         composite,
		FundamentalsScore: fundScore,
		NewsScore:         newsScore,
		MomentumScore:     momentum,
		RiskPenalty:       risk,
		Reasons:           s.reasonCodes(fundScore, newsScore, bundle, latestAt, now),
		EvidenceCount:     bundle.Count(),
		LatestEvidenceAt:  latestAt,
	}
}

// scoreFundamentals computes the fundamentals pillar (0-100, base 50)
func (s *Scorer) scoreFundamentals(item *contracts.EvidenceItem, now time.Time) float64 {
	if item == nil || item.Fundamentals == nil {
		return 0
	}

	// Age gate first: stale fundamentals are forced low regardless of values
	if item.Age(now) > contracts.FundamentalsStaleAge {
		return fundamentalsStaleCap
	}

	f := item.Fundamentals
	score := fundamentalsBase

	// Net cash position
	net := f.NetCash()
	switch {
	case net >= netCashLargeFloor:
		score += 20
	case net >= netCashMediumFloor:
		score += 15
	case net >= netCashSmallFloor:
		score += 10
	case net > 0:
		score += 5
	case net < 0:
		score -= 15
	}

	// Market-cap band fit
	switch {
	case f.MarketCap >= capSweetLow && f.MarketCap <= capSweetHigh:
		score += 5
	case f.MarketCap > capOversized:
		score -= 10
	case f.MarketCap < capUndersized:
		score -= 5
	}

	// Operating cash flow sign
	if f.OperatingCashFlow > 0 {
		score += 10
	} else if f.OperatingCashFlow < 0 {
		score -= 10
	}

	return clamp(score, 0, 100)
}

// scoreNews computes the news pillar (0-100): per-item event weight with
// exponential recency decay and source-tier weighting, plus a bounded
// keyword sentiment adjustment, averaged across items
func (s *Scorer) scoreNews(items []*contracts.EvidenceItem, now time.Time) float64 {
	if len(items) == 0 {
		return 0
	}

	count := len(items)
	if count > s.config.MaxNewsItems {
		count = s.config.MaxNewsItems
	}

	total := 0.0
	for _, item := range items[:count] {
		if item.News == nil {
			continue
		}
		total += s.scoreNewsItem(item.News, now)
	}

	return clamp(total/float64(count), 0, 100)
}

// scoreNewsItem scores one news record
func (s *Scorer) scoreNewsItem(news *contracts.NewsEvidence, now time.Time) float64 {
	headline := strings.ToLower(news.Headline)

	eventWeight := matchFirst(headline, s.tables.EventCategories, s.tables.DefaultEventWeight)

	ageDays := now.Sub(news.PublishedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	decay := math.Exp(-s.config.NewsDecayPerDay * ageDays)

	sourceWeight := matchFirst(strings.ToLower(news.Source), s.tables.SourceTiers, s.tables.DefaultSourceWeight)

	return eventWeight*decay*sourceWeight + s.sentimentAdjustment(headline)
}

// sentimentAdjustment sums keyword hits, negatives weighing heavier,
// clamped to the configured bound
func (s *Scorer) sentimentAdjustment(headline string) float64 {
	adj := 0.0
	for _, kw := range s.tables.PositiveKeywords {
		if strings.Contains(headline, kw) {
			adj += s.tables.PositiveAdj
		}
	}
	for _, kw := range s.tables.NegativeKeywords {
		if strings.Contains(headline, kw) {
			adj += s.tables.NegativeAdj
		}
	}
	return clamp(adj, -s.tables.SentimentClamp, s.tables.SentimentClamp)
}

// riskPenalty computes the additive risk deduction (0-50)
func (s *Scorer) riskPenalty(fundScore float64, news []*contracts.EvidenceItem, latestAt, now time.Time) float64 {
	penalty := 0.0

	if fundScore < weakPillarThreshold {
		penalty += penaltyWeakFundamentals
	}

	recentNews := 0
	for _, item := range news {
		if now.Sub(item.EffectiveTime()) <= recentNewsWindow {
			recentNews++
		}
	}
	if recentNews == 0 {
		penalty += penaltyNoRecentNews
	}

	if !latestAt.IsZero() && now.Sub(latestAt) > ancientEvidenceAge {
		penalty += penaltyAncientEvidence
	}

	return clamp(penalty, 0, 50)
}

// reasonCodes derives reason codes from pillar values in a fixed emission
// order so repeated runs produce identical code lists
func (s *Scorer) reasonCodes(fundScore, newsScore float64, bundle *contracts.EvidenceBundle, latestAt, now time.Time) []string {
	codes := make([]string, 0, 4)

	if fundScore > strongPillarThreshold {
		codes = append(codes, contracts.ReasonStrongFundamentals)
	}
	if fundScore < weakPillarThreshold {
		codes = append(codes, contracts.ReasonWeakFundamentals)
	}

	if newsScore > strongPillarThreshold {
		codes = append(codes, contracts.ReasonPositiveNews)
	}
	if newsScore < weakPillarThreshold {
		codes = append(codes, contracts.ReasonNegativeNews)
	}

	if !latestAt.IsZero() {
		age := now.Sub(latestAt)
		if age < freshEvidenceAge {
			codes = append(codes, contracts.ReasonFreshEvidence)
		}
		if age > ancientEvidenceAge {
			codes = append(codes, contracts.ReasonStaleEvidence)
		}
	}

	if bundle.Count() > richEvidenceCount {
		codes = append(codes, contracts.ReasonRichEvidence)
	}

	if len(codes) == 0 {
		codes = append(codes, contracts.ReasonNeutral)
	}

	return codes
}

// matchFirst returns the weight of the first pattern contained in text,
// or the fallback when nothing matches
func matchFirst(text string, table []WeightedPattern, fallback float64) float64 {
	for _, row := range table {
		if strings.Contains(text, row.Pattern) {
			return row.Weight
		}
	}
	return fallback
}

// clamp bounds v to [lo, hi]
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
