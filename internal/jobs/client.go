package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"

	"github.com/picalc/pi-calculator/internal/job"
	"github.com/picalc/pi-calculator/internal/store"
	"github.com/picalc/pi-calculator/internal/worker"
)

const (
	DefaultQueue  = "pi"
	MaxJobRetries = 1
)

type jobCanceller interface {
	JobCancel(ctx context.Context, jobID int64) (*rivertype.JobRow, error)
}

// Client is the River backed job queue.
type Client struct {
	*river.Client[pgx.Tx]
	riverJobs store.RiverJob
	canceller jobCanceller
}

type ClientOption func(*clientConfig)

type clientConfig struct {
	runner     *worker.Runner
	maxWorkers int
}

// WithWorkers makes the client work the pi queue with the runner.
func WithWorkers(runner *worker.Runner, maxWorkers int) ClientOption {
	return func(c *clientConfig) {
		c.runner = runner
		c.maxWorkers = maxWorkers
	}
}

// NewClient returns an insert only client unless WithWorkers is given.
func NewClient(pool *pgxpool.Pool, riverJobs store.RiverJob, opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{maxWorkers: 4}
	for _, opt := range opts {
		opt(cfg)
	}

	riverCfg := &river.Config{}
	if cfg.runner != nil {
		workers := river.NewWorkers()
		river.AddWorker(workers, NewPiWorker(cfg.runner))
		riverCfg.Workers = workers
		riverCfg.Queues = map[string]river.QueueConfig{
			DefaultQueue: {MaxWorkers: cfg.maxWorkers},
		}
	}

	riverClient, err := river.NewClient(riverpgxv5.New(pool), riverCfg)
	if err != nil {
		return nil, err
	}

	return &Client{Client: riverClient, riverJobs: riverJobs, canceller: riverClient}, nil
}

func (c *Client) Enqueue(ctx context.Context, task job.Task) error {
	_, err := c.InsertJob(ctx, PiArgs{JobID: task.ID, Digits: task.Params.Digits})
	return err
}

func (c *Client) InsertJob(ctx context.Context, args PiArgs) (int64, error) {
	result, err := c.Insert(ctx, args, &river.InsertOpts{
		Queue:       DefaultQueue,
		MaxAttempts: MaxJobRetries,
	})
	if err != nil {
		return 0, err
	}
	return result.Job.ID, nil
}

// Cancel interrupts the River job carrying the given pi job when it is
// running. Jobs still waiting in the queue are left alone: the runner reads
// the cancel flag before it starts and records the cancellation itself.
func (c *Client) Cancel(ctx context.Context, id job.ID) error {
	riverID, err := c.riverJobs.GetRunningJob(ctx, id)
	if err != nil {
		return fmt.Errorf("looking up river job of %s: %w", id, err)
	}
	if riverID == nil {
		return nil
	}

	if _, err := c.canceller.JobCancel(ctx, *riverID); err != nil {
		return fmt.Errorf("cancelling river job %d: %w", *riverID, err)
	}
	return nil
}
