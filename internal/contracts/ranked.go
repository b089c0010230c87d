package contracts

import "time"

// Reason codes attached to ranked scores for auditability
const (
	ReasonNoEvidence         = "NO_EVIDENCE"
	ReasonScoringError       = "SCORING_ERROR"
	ReasonStrongFundamentals = "STRONG_FUNDAMENTALS"
	ReasonWeakFundamentals   = "WEAK_FUNDAMENTALS"
	ReasonPositiveNews       = "POSITIVE_NEWS"
	ReasonNegativeNews       = "NEGATIVE_NEWS"
	ReasonFreshEvidence      = "FRESH_EVIDENCE"
	ReasonStaleEvidence      = "STALE_EVIDENCE"
	ReasonRichEvidence       = "RICH_EVIDENCE"
	ReasonNeutral            = "NEUTRAL"
)

// RankedScore is one ticker's scoring result within a ranking run
type RankedScore struct {
	Ticker            string    `json:"ticker"`
	Composite         float64   `json:"composite"` // 0-100, clamped
	FundamentalsScore float64   `json:"fundamentals_score"`
	NewsScore         float64   `json:"news_score"`
	MomentumScore     float64   `json:"momentum_score"`
	RiskPenalty       float64   `json:"risk_penalty"`
	Reasons           []string  `json:"reasons"`
	EvidenceCount     int       `json:"evidence_count"`
	LatestEvidenceAt  time.Time `json:"latest_evidence_at"`
}

// ScoringEcho records the configuration a snapshot was scored with
type ScoringEcho struct {
	FundamentalsWeight float64 `json:"fundamentals_weight"`
	NewsWeight         float64 `json:"news_weight"`
	MomentumWeight     float64 `json:"momentum_weight"`
	RiskWeight         float64 `json:"risk_weight"`
	NewsDecayPerDay    float64 `json:"news_decay_per_day"`
	MaxNewsItems       int     `json:"max_news_items"`
}

// RankedSnapshot is the immutable output of one ranking run.
// Scores are totally ordered: composite descending, then evidence count
// descending, then ticker ascending.
type RankedSnapshot struct {
	ID          string        `json:"id"`
	UniverseID  string        `json:"universe_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Scores      []RankedScore `json:"scores"`
	Config      ScoringEcho   `json:"config"`
}

// Less is the total-order comparator for scores within a snapshot
func Less(a, b RankedScore) bool {
	if a.Composite != b.Composite {
		return a.Composite > b.Composite
	}
	if a.EvidenceCount != b.EvidenceCount {
		return a.EvidenceCount > b.EvidenceCount
	}
	return a.Ticker < b.Ticker
}

// Top returns the first n scores (or fewer)
func (s *RankedSnapshot) Top(n int) []RankedScore {
	if n > len(s.Scores) {
		n = len(s.Scores)
	}
	return s.Scores[:n]
}
