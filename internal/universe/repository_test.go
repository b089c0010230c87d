package universe

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmercer/biosift/internal/contracts"
)

func TestRepository_SaveAndLoadSnapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), connString)
	require.NoError(t, err, "database connection failed")
	defer pool.Close()

	repo := NewRepository(pool)
	ctx := context.Background()

	buildDate := time.Now().UTC().Truncate(24 * time.Hour)
	snapshot := &contracts.UniverseSnapshot{
		ID:        "univ-test",
		BuildDate: buildDate,
		Filters: contracts.FilterParams{
			MinPrice:      1.0,
			MarketCapLow:  50_000_000,
			MarketCapHigh: 2_000_000_000,
		},
		Candidates: []contracts.CandidateTicker{
			{Symbol: "ACME", CompanyName: "Acme Therapeutics", MarketCap: 300_000_000, Price: 4.5},
		},
		Excluded: map[string]string{"SPXL": "etf"},
	}

	require.NoError(t, repo.SaveSnapshot(ctx, snapshot))

	// Re-saving the same build date replaces it, not duplicates it
	snapshot.Candidates = append(snapshot.Candidates, contracts.CandidateTicker{Symbol: "BNGO"})
	require.NoError(t, repo.SaveSnapshot(ctx, snapshot))

	loaded, err := repo.GetLatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "univ-test", loaded.ID)
	assert.Equal(t, 2, loaded.Count())
	assert.Equal(t, "etf", loaded.Excluded["SPXL"])
	assert.True(t, loaded.Contains("ACME"))

	_, err = repo.DeleteOlderThan(ctx, buildDate.AddDate(0, 0, 1))
	require.NoError(t, err)
}
