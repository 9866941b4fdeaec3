package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apiserver "github.com/picalc/pi-calculator/internal/api_server"
	"github.com/picalc/pi-calculator/internal/config"
	"github.com/picalc/pi-calculator/internal/jobs"
	"github.com/picalc/pi-calculator/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Work the River queue without serving the api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done := setup()
		defer done()

		if cfg.Worker.Queue != config.QueueRiver || cfg.Database.Type != config.DatabaseTypePgsql {
			return fmt.Errorf("the worker command needs PI_QUEUE=%s and DB_TYPE=%s", config.QueueRiver, config.DatabaseTypePgsql)
		}

		zap.S().Info("Starting worker")
		defer zap.S().Info("Worker stopped")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		st, err := newStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		producer, err := newEventProducer(cfg)
		if err != nil {
			return err
		}
		defer closeProducer(producer)

		pgPool, err := newPgxPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer pgPool.Close()

		client, err := jobs.NewClient(pgPool, st.RiverJob(), jobs.WithWorkers(newRunner(cfg, st.JobStatus(), producer), cfg.Worker.Concurrency))
		if err != nil {
			return fmt.Errorf("failed to create river client: %w", err)
		}
		if err := client.Start(ctx); err != nil {
			return fmt.Errorf("failed to start river: %w", err)
		}
		defer stopRiver(client)

		listener, err := newListener(cfg.Service.MetricsAddress)
		if err != nil {
			return fmt.Errorf("creating listener: %w", err)
		}

		reaper := worker.NewReaper(st.JobStatus(), cfg.Service.StatusRetention, cfg.Service.ReaperInterval)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener).Run(gctx)
		})
		g.Go(func() error {
			reaper.Run(gctx)
			return nil
		})

		return g.Wait()
	},
}
