package handlers

import (
	"net/http"
	"sync"

	"github.com/dmercer/biosift/internal/contracts"
	"github.com/dmercer/biosift/pkg/logger"
)

// IngestionHandler serves the report of the most recent ingestion run.
// Reports are diagnostic and held in memory only; a restart clears them.
type IngestionHandler struct {
	logger *logger.Logger

	mu   sync.RWMutex
	last *contracts.IngestionReport
}

// NewIngestionHandler creates a new ingestion report handler
func NewIngestionHandler(log *logger.Logger) *IngestionHandler {
	return &IngestionHandler{logger: log}
}

// Record stores the report of a completed run
func (h *IngestionHandler) Record(report *contracts.IngestionReport) {
	h.mu.Lock()
	h.last = report
	h.mu.Unlock()
}

// GetLatestReport returns the most recent ingestion report
func (h *IngestionHandler) GetLatestReport(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	report := h.last
	h.mu.RUnlock()

	if report == nil {
		respondError(w, http.StatusNotFound, "No ingestion run has completed yet")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
