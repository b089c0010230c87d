package contracts

import "time"

// VariantCounts aggregates per-ticker outcomes for one evidence variant
type VariantCounts struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`
}

// IngestionReport summarizes one ingestion run. Diagnostic, not
// authoritative: authoritative state is the persisted evidence items.
type IngestionReport struct {
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	TickersPlanned int           `json:"tickers_planned"`
	Fundamentals   VariantCounts `json:"fundamentals"`
	News           VariantCounts `json:"news"`
	NewsDuplicates int           `json:"news_duplicates"` // dedup skips, counted within News.Skipped
}

// Duration returns the wall-clock duration of the run
func (r *IngestionReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
