package ranking

// WeightedPattern is one (pattern, weight) row of an ordered matching table.
// Tables are evaluated first-match-wins, so order rows by priority.
type WeightedPattern struct {
	Pattern string
	Weight  float64
}

// ScoringTables holds the keyword-driven news scoring configuration:
// event categories, source tiers, and sentiment keywords. They are data,
// not code, so scoring behavior stays table-testable and swappable.
type ScoringTables struct {
	// EventCategories map headline keywords to base points
	EventCategories    []WeightedPattern
	DefaultEventWeight float64

	// SourceTiers map publisher domains/names to multipliers
	SourceTiers         []WeightedPattern
	DefaultSourceWeight float64

	// Sentiment keywords adjust an item's score; negatives weigh heavier
	PositiveKeywords []string
	NegativeKeywords []string
	PositiveAdj      float64
	NegativeAdj      float64
	SentimentClamp   float64
}

// DefaultScoringTables returns the default keyword tables, tuned for
// small-cap biotech news flow
func DefaultScoringTables() ScoringTables {
	return ScoringTables{
		EventCategories: []WeightedPattern{
			{Pattern: "fda approval", Weight: 90},
			{Pattern: "approval", Weight: 85},
			{Pattern: "breakthrough therapy", Weight: 85},
			{Pattern: "fast track", Weight: 80},
			{Pattern: "phase 3", Weight: 80},
			{Pattern: "phase 2", Weight: 70},
			{Pattern: "phase 1", Weight: 60},
			{Pattern: "trial results", Weight: 75},
			{Pattern: "topline", Weight: 75},
			{Pattern: "clinical trial", Weight: 65},
			{Pattern: "partnership", Weight: 65},
			{Pattern: "collaboration", Weight: 65},
			{Pattern: "licensing", Weight: 65},
			{Pattern: "acquisition", Weight: 70},
			{Pattern: "merger", Weight: 70},
			{Pattern: "crl", Weight: 35},
			{Pattern: "clinical hold", Weight: 30},
			{Pattern: "offering", Weight: 35},
			{Pattern: "dilution", Weight: 30},
			{Pattern: "reverse split", Weight: 30},
			{Pattern: "delisting", Weight: 25},
		},
		DefaultEventWeight: 50,

		SourceTiers: []WeightedPattern{
			// Tier 1
			{Pattern: "reuters", Weight: 1.0},
			{Pattern: "bloomberg", Weight: 1.0},
			{Pattern: "wsj", Weight: 1.0},
			{Pattern: "barrons", Weight: 1.0},
			{Pattern: "biopharmadive", Weight: 1.0},
			{Pattern: "endpoints", Weight: 1.0},
			{Pattern: "fiercebiotech", Weight: 1.0},
			// Tier 2
			{Pattern: "seekingalpha", Weight: 0.85},
			{Pattern: "benzinga", Weight: 0.85},
			{Pattern: "marketwatch", Weight: 0.85},
			{Pattern: "fool.com", Weight: 0.85},
			{Pattern: "investors.com", Weight: 0.85},
		},
		DefaultSourceWeight: 0.7,

		PositiveKeywords: []string{
			"positive", "succeeds", "beats", "exceeds", "surges",
			"meets primary endpoint", "statistically significant",
			"upgraded", "granted", "expands",
		},
		NegativeKeywords: []string{
			"fails", "misses", "halted", "discontinued", "plunges",
			"lawsuit", "investigation", "downgraded", "recall",
			"adverse", "bankruptcy", "going concern",
		},
		PositiveAdj:    12,
		NegativeAdj:    -15,
		SentimentClamp: 20,
	}
}
