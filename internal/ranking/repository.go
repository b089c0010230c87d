package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmercer/biosift/internal/contracts"
)

// Repository handles ranked snapshot persistence
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new ranking repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveSnapshot persists a ranked snapshot and its ordered score rows in
// one transaction
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *contracts.RankedSnapshot) error {
	configJSON, err := json.Marshal(snapshot.Config)
	if err != nil {
		return fmt.Errorf("marshal scoring config: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO ranked_snapshots (id, universe_id, generated_at, config)
		VALUES ($1, $2, $3, $4)
	`, snapshot.ID, snapshot.UniverseID, snapshot.GeneratedAt, configJSON)
	if err != nil {
		return fmt.Errorf("insert ranked snapshot: %w", err)
	}

	for position, score := range snapshot.Scores {
		reasonsJSON, err := json.Marshal(score.Reasons)
		if err != nil {
			return fmt.Errorf("marshal reasons for %s: %w", score.Ticker, err)
		}

		var latestAt *time.Time
		if !score.LatestEvidenceAt.IsZero() {
			latestAt = &score.LatestEvidenceAt
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO ranked_scores (
				snapshot_id, position, ticker,
				composite, fundamentals_score, news_score, momentum_score, risk_penalty,
				reasons, evidence_count, latest_evidence_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			snapshot.ID, position+1, score.Ticker,
			score.Composite, score.FundamentalsScore, score.NewsScore, score.MomentumScore, score.RiskPenalty,
			reasonsJSON, score.EvidenceCount, latestAt,
		)
		if err != nil {
			return fmt.Errorf("insert ranked score for %s: %w", score.Ticker, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetLatestSnapshot retrieves the most recent ranked snapshot with its
// scores in rank order. Returns (nil, nil) when none exists yet.
func (r *Repository) GetLatestSnapshot(ctx context.Context) (*contracts.RankedSnapshot, error) {
	snapshot := &contracts.RankedSnapshot{}

	var configJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, universe_id, generated_at, config
		FROM ranked_snapshots
		ORDER BY generated_at DESC
		LIMIT 1
	`).Scan(&snapshot.ID, &snapshot.UniverseID, &snapshot.GeneratedAt, &configJSON)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest ranked snapshot: %w", err)
	}

	if err := json.Unmarshal(configJSON, &snapshot.Config); err != nil {
		return nil, fmt.Errorf("unmarshal scoring config: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT ticker, composite, fundamentals_score, news_score, momentum_score,
			risk_penalty, reasons, evidence_count, latest_evidence_at
		FROM ranked_scores
		WHERE snapshot_id = $1
		ORDER BY position ASC
	`, snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("query ranked scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var score contracts.RankedScore
		var reasonsJSON []byte
		var latestAt *time.Time

		err := rows.Scan(
			&score.Ticker, &score.Composite, &score.FundamentalsScore, &score.NewsScore,
			&score.MomentumScore, &score.RiskPenalty, &reasonsJSON, &score.EvidenceCount, &latestAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ranked score: %w", err)
		}

		if err := json.Unmarshal(reasonsJSON, &score.Reasons); err != nil {
			return nil, fmt.Errorf("unmarshal reasons: %w", err)
		}
		if latestAt != nil {
			score.LatestEvidenceAt = *latestAt
		}

		snapshot.Scores = append(snapshot.Scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked scores: %w", err)
	}

	return snapshot, nil
}

// DeleteOlderThan removes ranked snapshots generated before the cutoff.
// Score rows go with them via the foreign key cascade.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM ranked_snapshots WHERE generated_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old ranked snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
