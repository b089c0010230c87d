package handlers

import (
	"net/http"
	"strconv"

	"github.com/dmercer/biosift/internal/ranking"
	"github.com/dmercer/biosift/pkg/logger"
)

// RankingHandler serves ranked snapshot endpoints
type RankingHandler struct {
	repo   *ranking.Repository
	logger *logger.Logger
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(repo *ranking.Repository, log *logger.Logger) *RankingHandler {
	return &RankingHandler{
		repo:   repo,
		logger: log,
	}
}

// GetLatest returns the most recent ranked snapshot
// GET /api/ranking/latest?top=N
func (h *RankingHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.repo.GetLatestSnapshot(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load ranked snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to load ranked snapshot")
		return
	}
	if snapshot == nil {
		respondError(w, http.StatusNotFound, "No ranked snapshot exists yet")
		return
	}

	scores := snapshot.Scores
	if topParam := r.URL.Query().Get("top"); topParam != "" {
		top, err := strconv.Atoi(topParam)
		if err != nil || top < 1 {
			respondError(w, http.StatusBadRequest, "Invalid top parameter")
			return
		}
		scores = snapshot.Top(top)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"snapshot_id":  snapshot.ID,
			"universe_id":  snapshot.UniverseID,
			"generated_at": snapshot.GeneratedAt,
			"config":       snapshot.Config,
			"count":        len(scores),
			"scores":       scores,
		},
	})
}
