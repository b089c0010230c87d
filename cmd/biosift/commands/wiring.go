package commands

import (
	"fmt"
	"time"

	"github.com/dmercer/biosift/internal/evidence"
	"github.com/dmercer/biosift/internal/external/fmp"
	"github.com/dmercer/biosift/internal/external/yahoo"
	"github.com/dmercer/biosift/internal/ingest"
	"github.com/dmercer/biosift/internal/ranking"
	"github.com/dmercer/biosift/internal/universe"
	"github.com/dmercer/biosift/pkg/config"
	"github.com/dmercer/biosift/pkg/database"
	"github.com/dmercer/biosift/pkg/httputil"
	"github.com/dmercer/biosift/pkg/logger"
	"github.com/dmercer/biosift/pkg/ratelimit"
	"github.com/dmercer/biosift/pkg/redis"
)

// app bundles the wired pipeline components commands operate on
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client

	universeRepo *universe.Repository
	evidenceRepo *ingest.Repository
	rankedRepo   *ranking.Repository

	builder   *universe.Builder
	engine    *ingest.Engine
	assembler *evidence.Assembler
	ranker    *ranking.Ranker
}

// newApp loads config and wires the full pipeline
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	rateLimiter := redis.NewRateLimiter(redisClient, "biosift")
	cache := redis.NewCache(redisClient, "biosift")

	fmpHTTP := httputil.New(cfg, log).WithRateLimiter(rateLimiter, redis.FMPRateLimit)
	fmpClient := fmp.NewClient(fmpHTTP, log, cfg.FMP.BaseURL, cfg.FMP.APIKey)

	yahooHTTP := httputil.New(cfg, log)
	yahooClient := yahoo.NewClient(yahooHTTP, log, cfg.Yahoo.BaseURL, cfg.Yahoo.RequestsPerSecond)

	universeRepo := universe.NewRepository(db.Pool)
	evidenceRepo := ingest.NewRepository(db.Pool)
	rankedRepo := ranking.NewRepository(db.Pool)

	builder := universe.NewBuilder(fmpClient, yahooClient, universeRepo, cache, cfg.Universe, log)

	limiter := ratelimit.NewWindowLimiter(cfg.Ingestion.RateLimitPerMinute, time.Minute)
	engine := ingest.NewEngine(fmpClient, evidenceRepo, universeRepo, limiter, cfg.Ingestion, log)

	assembler := evidence.NewAssembler(evidenceRepo, cfg.Ingestion, log)

	scorer := ranking.NewScorer(assembler, ranking.DefaultScoringTables(), cfg.Scoring, log)
	ranker := ranking.NewRanker(universeRepo, assembler, scorer, rankedRepo, cfg.Scoring, log)

	return &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		redis:        redisClient,
		universeRepo: universeRepo,
		evidenceRepo: evidenceRepo,
		rankedRepo:   rankedRepo,
		builder:      builder,
		engine:       engine,
		assembler:    assembler,
		ranker:       ranker,
	}, nil
}

// Close releases the app's connections
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
