package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmercer/biosift/internal/events"
	"github.com/dmercer/biosift/internal/scheduler"
)

// schedulerCmd runs the pipeline scheduler without the API server
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the pipeline scheduler daemon",
	Long: `Runs the scheduled pipeline without the HTTP API:

  universe_build      weekdays 06:00
  evidence_ingestion  weekdays 08:00-18:00 every 2h
  universe_ranking    30 minutes after each ingestion slot
  retention_sweep     daily 02:00

Example:
  go run ./cmd/biosift scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	bus := events.NewBus(application.log)
	sched := scheduler.New(bus, application.log)
	if err := registerJobs(sched, application, bus); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	fmt.Println("Scheduler running. Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}
