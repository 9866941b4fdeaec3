package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/picalc/pi-calculator/internal/job"
	"go.uber.org/zap"
)

var (
	ErrPoolStopped = errors.New("worker pool is not running")
	ErrQueueFull   = errors.New("job queue is full")
)

// Pool runs tasks on a fixed set of goroutines fed by a bounded in-process
// queue. Tasks still queued when the pool stops are lost.
type Pool struct {
	runner      *Runner
	concurrency int
	tasks       chan job.Task

	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
	activeJobs map[job.ID]context.CancelCauseFunc
	activeMu   sync.Mutex
}

type PoolOption func(*Pool)

func WithPoolConcurrency(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithQueueSize(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.tasks = make(chan job.Task, n)
		}
	}
}

func NewPool(runner *Runner, opts ...PoolOption) *Pool {
	p := &Pool{
		runner:      runner,
		concurrency: 4,
		tasks:       make(chan job.Task, 1024),
		stopCh:      make(chan struct{}),
		activeJobs:  make(map[job.ID]context.CancelCauseFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the worker goroutines. It returns immediately.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	zap.S().Named("worker_pool").Infow("worker pool starting", "concurrency", p.concurrency, "queue_size", cap(p.tasks))

	for range p.concurrency {
		p.wg.Add(1)
		go p.loop()
	}
	return nil
}

// Stop lets the running jobs complete. When ctx is done first, they are
// cancelled and record a cancelled status.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	logger := zap.S().Named("worker_pool")
	logger.Info("worker pool stopping")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		logger.Warn("worker pool shutdown timed out, cancelling active jobs")
		p.cancelActiveJobs(errShutdown)
		<-done
	}

	if pending := len(p.tasks); pending > 0 {
		logger.Warnw("queued jobs left unprocessed", "count", pending)
	}
	return nil
}

func (p *Pool) Enqueue(ctx context.Context, task job.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Cancel interrupts the job if one of the workers runs it.
func (p *Pool) Cancel(_ context.Context, id job.ID) error {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()

	if cancel, ok := p.activeJobs[id]; ok {
		cancel(errCancelRequested)
	}
	return nil
}

func (p *Pool) loop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		select {
		case <-p.stopCh:
			return
		case task := <-p.tasks:
			p.execute(task)
		}
	}
}

func (p *Pool) execute(task job.Task) {
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	p.trackJob(task.ID, cancel)
	defer p.untrackJob(task.ID)

	err := p.runner.Run(ctx, task)
	switch {
	case err == nil:
	case errors.Is(err, job.ErrCancelled):
		zap.S().Named("worker_pool").Infow("job cancelled", "job_id", task.ID, "error", err)
	default:
		zap.S().Named("worker_pool").Errorw("job execution failed", "job_id", task.ID, "error", err)
	}
}

func (p *Pool) trackJob(id job.ID, cancel context.CancelCauseFunc) {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	p.activeJobs[id] = cancel
}

func (p *Pool) untrackJob(id job.ID) {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	delete(p.activeJobs, id)
}

func (p *Pool) cancelActiveJobs(cause error) {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	for _, cancel := range p.activeJobs {
		cancel(cause)
	}
}
