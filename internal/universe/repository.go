package universe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmercer/biosift/internal/contracts"
)

// Repository handles universe snapshot persistence
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new universe repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveSnapshot saves a universe snapshot, replacing an earlier build
// from the same date
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *contracts.UniverseSnapshot) error {
	candidatesJSON, err := json.Marshal(snapshot.Candidates)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}

	excludedJSON, err := json.Marshal(snapshot.Excluded)
	if err != nil {
		return fmt.Errorf("marshal excluded: %w", err)
	}

	filtersJSON, err := json.Marshal(snapshot.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}

	query := `
		INSERT INTO universe_snapshots (
			id, build_date, filters, candidates, excluded, created_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (build_date) DO UPDATE SET
			id = EXCLUDED.id,
			filters = EXCLUDED.filters,
			candidates = EXCLUDED.candidates,
			excluded = EXCLUDED.excluded,
			created_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		snapshot.ID,
		snapshot.BuildDate,
		filtersJSON,
		candidatesJSON,
		excludedJSON,
	)
	if err != nil {
		return fmt.Errorf("insert universe snapshot: %w", err)
	}

	return nil
}

// GetLatestSnapshot retrieves the most recent universe snapshot.
// Returns (nil, nil) when no snapshot exists yet.
func (r *Repository) GetLatestSnapshot(ctx context.Context) (*contracts.UniverseSnapshot, error) {
	query := `
		SELECT id, build_date, filters, candidates, excluded
		FROM universe_snapshots
		ORDER BY build_date DESC
		LIMIT 1
	`

	snapshot := &contracts.UniverseSnapshot{
		Excluded: make(map[string]string),
	}

	var filtersJSON, candidatesJSON, excludedJSON []byte
	err := r.pool.QueryRow(ctx, query).Scan(
		&snapshot.ID,
		&snapshot.BuildDate,
		&filtersJSON,
		&candidatesJSON,
		&excludedJSON,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest universe snapshot: %w", err)
	}

	if err := json.Unmarshal(filtersJSON, &snapshot.Filters); err != nil {
		return nil, fmt.Errorf("unmarshal filters: %w", err)
	}
	if err := json.Unmarshal(candidatesJSON, &snapshot.Candidates); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}
	if len(excludedJSON) > 0 {
		if err := json.Unmarshal(excludedJSON, &snapshot.Excluded); err != nil {
			return nil, fmt.Errorf("unmarshal excluded: %w", err)
		}
	}

	return snapshot, nil
}

// DeleteOlderThan removes snapshots past the retention window.
// Returns the number of snapshots deleted.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM universe_snapshots WHERE build_date < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old universe snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
