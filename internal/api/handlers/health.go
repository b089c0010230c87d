package handlers

import (
	"net/http"

	"github.com/dmercer/biosift/pkg/database"
	"github.com/dmercer/biosift/pkg/logger"
	"github.com/dmercer/biosift/pkg/redis"
)

// HealthHandler reports service and dependency health
type HealthHandler struct {
	db     *database.DB
	redis  *redis.Client
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, redisClient *redis.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redisClient,
		logger: log,
	}
}

// Get returns service health with per-dependency status
// GET /health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := http.StatusOK
	checks := map[string]string{}

	if err := h.db.Ping(ctx); err != nil {
		checks["postgres"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		checks["postgres"] = "ok"
	}

	if h.redis != nil && h.redis.Enabled() {
		if err := h.redis.Ping(ctx); err != nil {
			checks["redis"] = "down"
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "disabled"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	respondJSON(w, status, map[string]interface{}{
		"service": "biosift",
		"status":  overall,
		"checks":  checks,
	})
}
