package contracts

import (
	"encoding/json"
	"time"
)

// EvidenceKind discriminates the two evidence variants
type EvidenceKind string

const (
	KindFundamentals EvidenceKind = "fundamentals"
	KindNews         EvidenceKind = "news"
)

// Staleness thresholds per variant. Staleness is always re-derived from
// the current clock at read time, never persisted.
const (
	FundamentalsStaleAge = 7 * 24 * time.Hour
	NewsStaleAge         = 24 * time.Hour
)

// MaxRawPayloadBytes caps the stored raw provider payload
const MaxRawPayloadBytes = 16 * 1024

// FundamentalsEvidence is a normalized fundamentals snapshot for a ticker
type FundamentalsEvidence struct {
	AsOf              time.Time `json:"as_of"`
	MarketCap         int64     `json:"market_cap"`
	SharesOutstanding int64     `json:"shares_outstanding"`
	Cash              int64     `json:"cash"`
	TotalDebt         int64     `json:"total_debt"`
	OperatingCashFlow int64     `json:"operating_cash_flow"`
	CapEx             int64     `json:"capex"`
	Revenue           int64     `json:"revenue"`

	// Derived at ingestion time
	MonthlyBurn      float64 `json:"monthly_burn"`       // positive when the company burns cash
	CashRunwayMonths float64 `json:"cash_runway_months"` // 0 when not burning
	BelowNetCash     bool    `json:"below_net_cash"`     // market cap under cash minus debt
}

// NetCash returns cash minus total debt
func (f *FundamentalsEvidence) NetCash() int64 {
	return f.Cash - f.TotalDebt
}

// NewsEvidence is a single normalized news record
type NewsEvidence struct {
	Headline    string    `json:"headline"`
	Snippet     string    `json:"snippet"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url"`
}

// EvidenceItem is one append-only fact record, keyed by (ticker, ingested at).
// Exactly one of Fundamentals or News is set, matching Kind.
type EvidenceItem struct {
	Ticker     string          `json:"ticker"`
	Kind       EvidenceKind    `json:"kind"`
	IngestedAt time.Time       `json:"ingested_at"`
	SourceID   string          `json:"source_id"`
	Raw        json.RawMessage `json:"raw,omitempty"` // size-capped provider payload

	Fundamentals *FundamentalsEvidence `json:"fundamentals,omitempty"`
	News         *NewsEvidence         `json:"news,omitempty"`
}

// EffectiveTime is the timestamp staleness is measured against. News ages
// from its publish time. Fundamentals age from ingestion: the statement's
// as-of date is always a quarter behind, what matters is how recently the
// snapshot was refreshed.
func (e *EvidenceItem) EffectiveTime() time.Time {
	if e.Kind == KindNews && e.News != nil {
		return e.News.PublishedAt
	}
	return e.IngestedAt
}

// Age returns the evidence age relative to now
func (e *EvidenceItem) Age(now time.Time) time.Duration {
	return now.Sub(e.EffectiveTime())
}

// IsStale reports whether the item exceeds its variant's staleness threshold
func (e *EvidenceItem) IsStale(now time.Time, fundamentalsAge, newsAge time.Duration) bool {
	switch e.Kind {
	case KindFundamentals:
		return e.Age(now) > fundamentalsAge
	case KindNews:
		return e.Age(now) > newsAge
	}
	return true
}

// EvidenceBundle is the ephemeral, recency-gated per-ticker view handed to
// scoring and research. A bundle missing fundamentals or news is not built
// at all; consumers only ever see sufficient bundles.
type EvidenceBundle struct {
	Ticker       string          `json:"ticker"`
	Fundamentals *EvidenceItem   `json:"fundamentals"`
	News         []*EvidenceItem `json:"news"`
}

// Count returns the total number of evidence items in the bundle
func (b *EvidenceBundle) Count() int {
	n := len(b.News)
	if b.Fundamentals != nil {
		n++
	}
	return n
}

// LatestEvidenceAt returns the most recent effective timestamp across the bundle
func (b *EvidenceBundle) LatestEvidenceAt() time.Time {
	var latest time.Time
	if b.Fundamentals != nil {
		latest = b.Fundamentals.EffectiveTime()
	}
	for _, item := range b.News {
		if t := item.EffectiveTime(); t.After(latest) {
			latest = t
		}
	}
	return latest
}
