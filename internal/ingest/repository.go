package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmercer/biosift/internal/contracts"
)

// Repository is the evidence store: append-only writes keyed by ticker and
// ingestion time, read back through a ticker-keyed time-ordered index.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new evidence repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveEvidence appends one evidence item. Items are never updated in place.
func (r *Repository) SaveEvidence(ctx context.Context, item *contracts.EvidenceItem) error {
	payloadJSON, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal evidence item: %w", err)
	}

	var newsURL *string
	var newsPublishedAt *time.Time
	if item.Kind == contracts.KindNews && item.News != nil {
		newsURL = &item.News.URL
		newsPublishedAt = &item.News.PublishedAt
	}

	query := `
		INSERT INTO evidence_items (
			ticker, kind, ingested_at, effective_at, source_id,
			payload, news_url, news_published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.pool.Exec(ctx, query,
		item.Ticker,
		string(item.Kind),
		item.IngestedAt,
		item.EffectiveTime(),
		item.SourceID,
		payloadJSON,
		newsURL,
		newsPublishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evidence item: %w", err)
	}

	return nil
}

// NewsExists checks for an already-persisted article with the same
// (ticker, URL, published-at). Duplicates are skipped, not errors.
func (r *Repository) NewsExists(ctx context.Context, ticker, url string, publishedAt time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM evidence_items
			WHERE ticker = $1 AND kind = $2 AND news_url = $3 AND news_published_at = $4
		)
	`, ticker, string(contracts.KindNews), url, publishedAt).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check news existence: %w", err)
	}
	return exists, nil
}

// LatestFundamentals returns the most recently ingested fundamentals item
// for a ticker, or nil when none exists
func (r *Repository) LatestFundamentals(ctx context.Context, ticker string) (*contracts.EvidenceItem, error) {
	query := `
		SELECT payload FROM evidence_items
		WHERE ticker = $1 AND kind = $2
		ORDER BY ingested_at DESC
		LIMIT 1
	`

	var payloadJSON []byte
	err := r.pool.QueryRow(ctx, query, ticker, string(contracts.KindFundamentals)).Scan(&payloadJSON)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest fundamentals: %w", err)
	}

	var item contracts.EvidenceItem
	if err := json.Unmarshal(payloadJSON, &item); err != nil {
		return nil, fmt.Errorf("unmarshal fundamentals item: %w", err)
	}
	return &item, nil
}

// RecentNews returns up to limit news items for a ticker, freshest first
// by publish time
func (r *Repository) RecentNews(ctx context.Context, ticker string, limit int) ([]*contracts.EvidenceItem, error) {
	query := `
		SELECT payload FROM evidence_items
		WHERE ticker = $1 AND kind = $2
		ORDER BY news_published_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, ticker, string(contracts.KindNews), limit)
	if err != nil {
		return nil, fmt.Errorf("query recent news: %w", err)
	}
	defer rows.Close()

	items := make([]*contracts.EvidenceItem, 0, limit)
	for rows.Next() {
		var payloadJSON []byte
		if err := rows.Scan(&payloadJSON); err != nil {
			return nil, fmt.Errorf("scan news row: %w", err)
		}

		var item contracts.EvidenceItem
		if err := json.Unmarshal(payloadJSON, &item); err != nil {
			return nil, fmt.Errorf("unmarshal news item: %w", err)
		}
		items = append(items, &item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate news rows: %w", rows.Err())
	}

	return items, nil
}

// OrderByStalestFundamentals orders the given tickers by the age of their
// latest fundamentals evidence, never-ingested first, and caps the result.
// This rotates full universe coverage across runs.
func (r *Repository) OrderByStalestFundamentals(ctx context.Context, tickers []string, cap int) ([]string, error) {
	query := `
		SELECT t.ticker
		FROM unnest($1::text[]) AS t(ticker)
		LEFT JOIN LATERAL (
			SELECT ingested_at FROM evidence_items
			WHERE ticker = t.ticker AND kind = $2
			ORDER BY ingested_at DESC LIMIT 1
		) latest ON TRUE
		ORDER BY latest.ingested_at ASC NULLS FIRST, t.ticker ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, tickers, string(contracts.KindFundamentals), cap)
	if err != nil {
		return nil, fmt.Errorf("query stalest tickers: %w", err)
	}
	defer rows.Close()

	ordered := make([]string, 0, cap)
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		ordered = append(ordered, ticker)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate tickers: %w", rows.Err())
	}

	return ordered, nil
}

// DeleteOlderThan removes evidence past the retention window.
// Returns the number of items deleted.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM evidence_items WHERE ingested_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old evidence: %w", err)
	}
	return tag.RowsAffected(), nil
}
