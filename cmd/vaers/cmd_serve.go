package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vaersinsight/vaersinsight/pkg/api"
	"github.com/vaersinsight/vaersinsight/pkg/dashboard"
	"github.com/vaersinsight/vaersinsight/pkg/mlmodel"
	"github.com/vaersinsight/vaersinsight/pkg/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Long: `Starts the HTTP dashboard on PORT. When RETRAIN_SCHEDULE holds a cron
expression the model is retrained on that schedule and the next prediction
picks up the new artifact. GET /api/retrain reports the next and last run.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	cache := mlmodel.NewCache(cfg.ModelPath, logger)
	svc := dashboard.NewService(store, cache, logger)

	var sched *scheduler.Service
	if cfg.RetrainSchedule != "" {
		trainer := mlmodel.NewService(store, trainerOptions(), logger)
		sched = scheduler.NewService(trainer, svc.InvalidateModel, logger)
		if err := sched.Schedule(cfg.RetrainSchedule); err != nil {
			return err
		}
		sched.Start()
	}

	server := api.NewServer(svc, cfg.Port, logger)
	if sched != nil {
		server.SetRetrainStatus(sched)
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("Server shutdown failed", zap.Error(shutdownErr))
	}
	return err
}
