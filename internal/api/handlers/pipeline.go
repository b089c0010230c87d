package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmercer/biosift/internal/scheduler"
	"github.com/dmercer/biosift/pkg/logger"
)

// PipelineHandler exposes scheduler status and manual job triggers
type PipelineHandler struct {
	scheduler *scheduler.Scheduler
	logger    *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(sched *scheduler.Scheduler, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		scheduler: sched,
		logger:    log,
	}
}

// GetJobs returns registered jobs with their execution statistics
// GET /api/pipeline/jobs
func (h *PipelineHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.scheduler.GetJobStats(),
	})
}

// GetJobHistory returns recent executions of one job
// GET /api/pipeline/jobs/{name}/history
func (h *PipelineHandler) GetJobHistory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	history, err := h.scheduler.GetJobHistory(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"job":          name,
			"success_rate": history.GetSuccessRate(),
			"results":      history.GetLatestResults(20),
		},
	})
}

// TriggerJob runs a job immediately, outside its schedule
// POST /api/pipeline/jobs/{name}/run
func (h *PipelineHandler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.scheduler.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Job triggered via API")

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"data": map[string]string{
			"job":    name,
			"status": "started",
		},
	})
}
