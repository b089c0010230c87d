package contracts

import "context"

// UniverseBuilder constructs the daily candidate universe
type UniverseBuilder interface {
	BuildUniverse(ctx context.Context) (*UniverseSnapshot, error)
}

// IngestionEngine fetches and persists evidence for candidate tickers.
// With a nil ticker list, the latest universe snapshot is used.
type IngestionEngine interface {
	RunIngestion(ctx context.Context, tickers []string) (*IngestionReport, error)
}

// EvidenceAssembler builds recency-gated evidence bundles.
// A nil bundle means the ticker lacks sufficient fresh evidence.
type EvidenceAssembler interface {
	BuildBundle(ctx context.Context, ticker string) (*EvidenceBundle, error)
	BuildBundles(ctx context.Context, tickers []string) (map[string]*EvidenceBundle, error)
}

// Ranker scores and orders the current universe
type Ranker interface {
	RankUniverse(ctx context.Context) (*RankedSnapshot, error)
}
