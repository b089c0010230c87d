package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	FMP   FMPConfig
	Yahoo YahooConfig

	// Pipeline
	Universe  UniverseConfig
	Ingestion IngestionConfig
	Scoring   ScoringConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// FMPConfig holds the evidence provider (Financial Modeling Prep) configuration
type FMPConfig struct {
	APIKey  string
	BaseURL string
}

// YahooConfig holds the quote/reference provider configuration
type YahooConfig struct {
	BaseURL string
	// Requests per second against the quote endpoints
	RequestsPerSecond float64
}

// UniverseConfig holds universe filter criteria
type UniverseConfig struct {
	MinPrice         float64  // minimum share price (USD)
	MarketCapLow     int64    // market cap band lower bound (USD)
	MarketCapHigh    int64    // market cap band upper bound (USD)
	MinDollarVolume  float64  // minimum approximate average dollar volume (USD)
	Exchanges        []string // exchange allow-list
	SectorKeywords   []string // sector/industry keyword allow-list
	ValidateWorkers  int      // concurrency for symbol validation
	RetentionDays    int      // snapshot retention window
}

// IngestionConfig holds ingestion engine parameters
type IngestionConfig struct {
	MaxTickersPerRun     int
	BatchSize            int
	Workers              int
	NewsPerTicker        int
	NewsLookbackDays     int
	RateLimitPerMinute   int // stays under the provider's published ceiling
	RetryMaxAttempts     int
	RetryBaseDelay       time.Duration
	RetryMaxDelay        time.Duration
	FundamentalsStaleAge time.Duration // fundamentals older than this are stale
	NewsStaleAge         time.Duration // news older than this is stale
	EvidenceRetentionDays int
}

// ScoringConfig holds composite score weights and news decay
type ScoringConfig struct {
	FundamentalsWeight float64
	NewsWeight         float64
	MomentumWeight     float64
	RiskWeight         float64
	NewsDecayPerDay    float64 // exponential recency decay constant
	MaxNewsItems       int     // news items considered per ticker
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		FMP: FMPConfig{
			APIKey:  getEnv("FMP_API_KEY", ""),
			BaseURL: getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
		},

		Yahoo: YahooConfig{
			BaseURL:           getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RequestsPerSecond: getEnvAsFloat("YAHOO_RPS", 5.0),
		},

		Universe: UniverseConfig{
			MinPrice:        getEnvAsFloat("UNIVERSE_MIN_PRICE", 1.0),
			MarketCapLow:    getEnvAsInt64("UNIVERSE_MARKET_CAP_LOW", 50_000_000),
			MarketCapHigh:   getEnvAsInt64("UNIVERSE_MARKET_CAP_HIGH", 2_000_000_000),
			MinDollarVolume: getEnvAsFloat("UNIVERSE_MIN_DOLLAR_VOLUME", 500_000),
			Exchanges:       getEnvAsSlice("UNIVERSE_EXCHANGES", []string{"NASDAQ", "NYSE", "AMEX"}),
			SectorKeywords:  getEnvAsSlice("UNIVERSE_SECTOR_KEYWORDS", []string{"biotech", "pharmaceutical", "therapeutics", "biosciences", "life sciences"}),
			ValidateWorkers: getEnvAsInt("UNIVERSE_VALIDATE_WORKERS", 8),
			RetentionDays:   getEnvAsInt("UNIVERSE_RETENTION_DAYS", 30),
		},

		Ingestion: IngestionConfig{
			MaxTickersPerRun:      getEnvAsInt("INGEST_MAX_TICKERS_PER_RUN", 150),
			BatchSize:             getEnvAsInt("INGEST_BATCH_SIZE", 10),
			Workers:               getEnvAsInt("INGEST_WORKERS", 4),
			NewsPerTicker:         getEnvAsInt("INGEST_NEWS_PER_TICKER", 10),
			NewsLookbackDays:      getEnvAsInt("INGEST_NEWS_LOOKBACK_DAYS", 7),
			RateLimitPerMinute:    getEnvAsInt("INGEST_RATE_LIMIT_PER_MINUTE", 240),
			RetryMaxAttempts:      getEnvAsInt("INGEST_RETRY_MAX_ATTEMPTS", 4),
			RetryBaseDelay:        getEnvAsDuration("INGEST_RETRY_BASE_DELAY", "500ms"),
			RetryMaxDelay:         getEnvAsDuration("INGEST_RETRY_MAX_DELAY", "8s"),
			FundamentalsStaleAge:  getEnvAsDuration("EVIDENCE_FUNDAMENTALS_STALE_AGE", "168h"),
			NewsStaleAge:          getEnvAsDuration("EVIDENCE_NEWS_STALE_AGE", "24h"),
			EvidenceRetentionDays: getEnvAsInt("EVIDENCE_RETENTION_DAYS", 30),
		},

		Scoring: ScoringConfig{
			FundamentalsWeight: getEnvAsFloat("SCORE_WEIGHT_FUNDAMENTALS", 0.40),
			NewsWeight:         getEnvAsFloat("SCORE_WEIGHT_NEWS", 0.30),
			MomentumWeight:     getEnvAsFloat("SCORE_WEIGHT_MOMENTUM", 0.15),
			RiskWeight:         getEnvAsFloat("SCORE_WEIGHT_RISK", 1.0),
			NewsDecayPerDay:    getEnvAsFloat("SCORE_NEWS_DECAY_PER_DAY", 0.35),
			MaxNewsItems:       getEnvAsInt("SCORE_MAX_NEWS_ITEMS", 10),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Universe.MarketCapLow >= c.Universe.MarketCapHigh {
		return fmt.Errorf("UNIVERSE_MARKET_CAP_LOW must be below UNIVERSE_MARKET_CAP_HIGH")
	}

	if c.Ingestion.RateLimitPerMinute <= 0 {
		return fmt.Errorf("INGEST_RATE_LIMIT_PER_MINUTE must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
