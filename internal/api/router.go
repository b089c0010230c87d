package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmercer/biosift/internal/api/handlers"
	"github.com/dmercer/biosift/pkg/logger"
)

// Handlers bundles the endpoint handlers the router wires up
type Handlers struct {
	Health    *handlers.HealthHandler
	Universe  *handlers.UniverseHandler
	Ranking   *handlers.RankingHandler
	Ingestion *handlers.IngestionHandler
	Pipeline  *handlers.PipelineHandler
	Events    *handlers.EventsHandler
}

// NewRouter creates and configures the HTTP router
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health.Get).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/universe/latest", h.Universe.GetLatest).Methods("GET")
	api.HandleFunc("/universe/latest/symbols", h.Universe.GetLatestSymbols).Methods("GET")

	api.HandleFunc("/ranking/latest", h.Ranking.GetLatest).Methods("GET")

	api.HandleFunc("/ingestion/report", h.Ingestion.GetLatestReport).Methods("GET")

	api.HandleFunc("/pipeline/jobs", h.Pipeline.GetJobs).Methods("GET")
	api.HandleFunc("/pipeline/jobs/{name}/history", h.Pipeline.GetJobHistory).Methods("GET")
	api.HandleFunc("/pipeline/jobs/{name}/run", h.Pipeline.TriggerJob).Methods("POST")

	api.HandleFunc("/events", h.Events.Stream).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from handler panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
