package handlers

import (
	"net/http"

	"github.com/dmercer/biosift/internal/universe"
	"github.com/dmercer/biosift/pkg/logger"
)

// UniverseHandler serves universe snapshot endpoints
type UniverseHandler struct {
	repo   *universe.Repository
	logger *logger.Logger
}

// NewUniverseHandler creates a new universe handler
func NewUniverseHandler(repo *universe.Repository, log *logger.Logger) *UniverseHandler {
	return &UniverseHandler{
		repo:   repo,
		logger: log,
	}
}

// GetLatest returns the most recent universe snapshot
// GET /api/universe/latest
func (h *UniverseHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.repo.GetLatestSnapshot(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load universe snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to load universe snapshot")
		return
	}
	if snapshot == nil {
		respondError(w, http.StatusNotFound, "No universe snapshot exists yet")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    snapshot,
	})
}

// GetLatestSymbols returns just the symbols of the latest universe
// GET /api/universe/latest/symbols
func (h *UniverseHandler) GetLatestSymbols(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.repo.GetLatestSnapshot(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load universe snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to load universe snapshot")
		return
	}
	if snapshot == nil {
		respondError(w, http.StatusNotFound, "No universe snapshot exists yet")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"snapshot_id": snapshot.ID,
			"build_date":  snapshot.BuildDate,
			"count":       snapshot.Count(),
			"symbols":     snapshot.Symbols(),
		},
	})
}
