package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmercer/biosift/internal/api"
	"github.com/dmercer/biosift/internal/api/handlers"
	"github.com/dmercer/biosift/internal/contracts"
	"github.com/dmercer/biosift/internal/events"
	"github.com/dmercer/biosift/internal/scheduler"
	"github.com/dmercer/biosift/internal/scheduler/jobs"
)

// serveCmd runs the API server with the pipeline scheduler
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and pipeline scheduler",
	Long: `Starts the HTTP API server together with the scheduled pipeline.

Endpoints:
  GET  /health                            - Health check
  GET  /api/universe/latest               - Latest universe snapshot
  GET  /api/universe/latest/symbols       - Latest universe symbols
  GET  /api/ranking/latest?top=N          - Latest ranked snapshot
  GET  /api/ingestion/report              - Most recent ingestion report
  GET  /api/pipeline/jobs                 - Scheduled job stats
  GET  /api/pipeline/jobs/{name}/history  - Job execution history
  POST /api/pipeline/jobs/{name}/run      - Trigger a job now
  GET  /api/events                        - Pipeline event stream (websocket)

Example:
  go run ./cmd/biosift serve
  go run ./cmd/biosift serve --port 8090 --no-scheduler`,
	RunE: runServe,
}

var (
	servePort     string
	noScheduler   bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (overrides PORT)")
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "serve the API without the scheduled pipeline")
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	if servePort != "" {
		application.cfg.Port = servePort
	}

	log := application.log
	bus := events.NewBus(log)

	// Jobs are always registered so manual triggers work; the cron loop
	// only runs unless disabled
	sched := scheduler.New(bus, log)
	if err := registerJobs(sched, application, bus); err != nil {
		return err
	}
	if !noScheduler {
		sched.Start()
		defer sched.Stop()
	}

	ingestionHandler := handlers.NewIngestionHandler(log)
	reportCh, cancelReports := bus.Subscribe()
	defer cancelReports()
	go func() {
		for event := range reportCh {
			if event.Type != events.TypeIngestionCompleted {
				continue
			}
			if report, ok := event.Payload.(*contracts.IngestionReport); ok {
				ingestionHandler.Record(report)
			}
		}
	}()

	router := api.NewRouter(api.Handlers{
		Health:    handlers.NewHealthHandler(application.db, application.redis, log),
		Universe:  handlers.NewUniverseHandler(application.universeRepo, log),
		Ranking:   handlers.NewRankingHandler(application.rankedRepo, log),
		Ingestion: ingestionHandler,
		Pipeline:  handlers.NewPipelineHandler(sched, log),
		Events:    handlers.NewEventsHandler(bus, log),
	}, log)

	server := api.New(application.cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// registerJobs wires the standard pipeline jobs into a scheduler
func registerJobs(sched *scheduler.Scheduler, application *app, bus *events.Bus) error {
	jobList := []scheduler.Job{
		jobs.NewUniverseJob(application.builder, bus, application.log),
		jobs.NewIngestionJob(application.engine, bus, application.log),
		jobs.NewRankingJob(application.ranker, bus, application.log),
		jobs.NewMaintenanceJob(application.evidenceRepo, application.universeRepo, application.rankedRepo, application.cfg, application.log),
	}

	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("register job %s: %w", job.Name(), err)
		}
	}

	return nil
}
