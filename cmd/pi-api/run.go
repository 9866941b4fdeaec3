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
	"github.com/picalc/pi-calculator/internal/service"
	"github.com/picalc/pi-calculator/internal/worker"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pi calculator api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done := setup()
		defer done()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		zap.S().Info("Initializing data store")
		st, err := newStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if cfg.Database.Type == config.DatabaseTypeSqlite {
			if err := st.InitialMigration(ctx); err != nil {
				return fmt.Errorf("running initial migration: %w", err)
			}
		}

		producer, err := newEventProducer(cfg)
		if err != nil {
			return err
		}
		defer closeProducer(producer)

		runner := newRunner(cfg, st.JobStatus(), producer)

		var queue service.Queue
		switch cfg.Worker.Queue {
		case config.QueueMemory:
			pool := worker.NewPool(runner,
				worker.WithPoolConcurrency(cfg.Worker.Concurrency),
				worker.WithQueueSize(cfg.Worker.QueueSize),
			)
			if err := pool.Start(ctx); err != nil {
				return fmt.Errorf("failed to start worker pool: %w", err)
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), poolStopTimeout)
				defer cancel()
				if err := pool.Stop(stopCtx); err != nil {
					zap.S().Warnw("failed to stop worker pool", "error", err)
				}
			}()
			queue = pool
		case config.QueueRiver:
			pgPool, err := newPgxPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pgPool.Close()

			client, err := jobs.NewClient(pgPool, st.RiverJob(), jobs.WithWorkers(runner, cfg.Worker.Concurrency))
			if err != nil {
				return fmt.Errorf("failed to create river client: %w", err)
			}
			if err := client.Start(ctx); err != nil {
				return fmt.Errorf("failed to start river: %w", err)
			}
			defer stopRiver(client)
			queue = client
			zap.S().Info("River job queue initialized")
		default:
			return fmt.Errorf("unknown queue %q", cfg.Worker.Queue)
		}

		jobSrv := service.NewJobService(st.JobStatus(), queue, cfg.Service.MaxDigits, service.WithEventPublisher(producer))
		reaper := worker.NewReaper(st.JobStatus(), cfg.Service.StatusRetention, cfg.Service.ReaperInterval)

		listener, err := newListener(cfg.Service.Address)
		if err != nil {
			return fmt.Errorf("creating listener: %w", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return apiserver.New(cfg, jobSrv, listener).Run(gctx)
		})
		g.Go(func() error {
			reaper.Run(gctx)
			return nil
		})

		return g.Wait()
	},
}

func stopRiver(client *jobs.Client) {
	stopCtx, cancel := context.WithTimeout(context.Background(), riverStopTimeout)
	defer cancel()
	if err := client.Stop(stopCtx); err != nil {
		zap.S().Warnw("failed to stop river client", "error", err)
	}
}
