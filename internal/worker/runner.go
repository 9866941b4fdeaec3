package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/picalc/pi-calculator/internal/compute"
	"github.com/picalc/pi-calculator/internal/events"
	"github.com/picalc/pi-calculator/internal/job"
	"github.com/picalc/pi-calculator/internal/store"
	"github.com/picalc/pi-calculator/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const terminalWriteTimeout = 10 * time.Second

var (
	errCancelRequested = errors.New("cancellation requested")
	errShutdown        = errors.New("worker shutdown")
)

// Computer runs the workload of a job.
type Computer interface {
	Compute(ctx context.Context, digits int, r compute.Reporter) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, kind, subject string, v any) error
}

type Runner struct {
	statuses         store.JobStatus
	computer         Computer
	events           EventPublisher
	timeout          time.Duration
	progressInterval time.Duration
}

type RunnerOption func(*Runner)

// WithTimeout bounds the execution time of a job. Zero disables it.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.timeout = d }
}

// WithProgressInterval sets the minimal delay between two progress writes of
// a job. Zero writes every report.
func WithProgressInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.progressInterval = d }
}

func WithEventPublisher(p EventPublisher) RunnerOption {
	return func(r *Runner) { r.events = p }
}

func NewRunner(statuses store.JobStatus, computer Computer, opts ...RunnerOption) *Runner {
	r := &Runner{
		statuses: statuses,
		computer: computer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the task and records exactly one terminal status for it. It
// returns the error that ended the job, nil when it finished. Tasks whose
// status is missing or already terminal are skipped.
func (r *Runner) Run(ctx context.Context, task job.Task) error {
	logger := zap.S().Named("runner").With("job_id", task.ID)

	row, err := r.statuses.Get(ctx, task.ID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			logger.Warn("skipping job without status")
			return nil
		}
		return fmt.Errorf("reading status of job %s: %w", task.ID, err)
	}
	if row.IsTerminal() {
		logger.Infow("skipping completed job", "state", row.State)
		return nil
	}

	start := time.Now()
	if row.CancelRequested {
		err := fmt.Errorf("%w: %w before start", job.ErrCancelled, errCancelRequested)
		r.complete(ctx, task, "", err, start)
		return err
	}

	metrics.IncreaseJobsRunningMetric()
	defer metrics.DecreaseJobsRunningMetric()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if r.timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeoutCause(runCtx, r.timeout, fmt.Errorf("timeout after %s", r.timeout))
		defer cancelTimeout()
	}

	logger.Infow("job started", "digits", task.Params.Digits)
	result, err := r.compute(runCtx, task, newProgressReporter(r.statuses, task.ID, r.progressInterval))
	if err != nil && runCtx.Err() != nil {
		err = fmt.Errorf("%w: %w", job.ErrCancelled, context.Cause(runCtx))
	}

	r.complete(ctx, task, result, err, start)
	return err
}

func (r *Runner) compute(ctx context.Context, task job.Task, reporter compute.Reporter) (result string, err error) {
	defer func() {
		if p := recover(); p != nil {
			zap.S().Named("runner").Errorw("job panicked", "job_id", task.ID, "panic", p)
			err = fmt.Errorf("internal error: %v", p)
		}
	}()
	return r.computer.Compute(ctx, task.Params.Digits, reporter)
}

// complete writes the terminal status with a context that outlives the
// cancellation of the job.
func (r *Runner) complete(ctx context.Context, task job.Task, result string, jobErr error, start time.Time) {
	logger := zap.S().Named("runner").With("job_id", task.ID)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()

	elapsed := time.Since(start)
	e := events.JobEvent{
		JobID:    task.ID.String(),
		Digits:   task.Params.Digits,
		Duration: elapsed,
	}

	var (
		outcome  string
		kind     string
		writeErr error
	)
	switch {
	case jobErr == nil:
		outcome, kind = metrics.OutcomeFinished, events.JobFinishedKind
		e.State, e.Result = string(job.StateFinished), result
		writeErr = r.statuses.Finish(writeCtx, task.ID, result)
	case errors.Is(jobErr, job.ErrCancelled):
		outcome, kind = metrics.OutcomeCancelled, events.JobFailedKind
		e.State, e.Error, e.Cancelled = string(job.StateFailed), jobErr.Error(), true
		writeErr = r.statuses.Fail(writeCtx, task.ID, jobErr.Error(), true)
	default:
		outcome, kind = metrics.OutcomeFailed, events.JobFailedKind
		e.State, e.Error = string(job.StateFailed), jobErr.Error()
		writeErr = r.statuses.Fail(writeCtx, task.ID, jobErr.Error(), false)
	}

	if writeErr != nil {
		logger.Errorw("failed to record terminal status", "error", writeErr, "outcome", outcome)
		return
	}

	metrics.ObserveJobCompleted(outcome, elapsed.Seconds())
	logger.Infow("job completed", "outcome", outcome, "duration", elapsed, "error", jobErr)

	if r.events != nil {
		if err := r.events.Publish(writeCtx, kind, e.JobID, e); err != nil {
			logger.Errorw("failed to write event", "error", err, "event_kind", kind)
		}
	}
}

// progressReporter relays the reports of a computation to the status store
// and stops it once its cancellation was requested.
type progressReporter struct {
	statuses store.JobStatus
	id       job.ID
	limiter  *rate.Limiter
	started  bool
}

func newProgressReporter(statuses store.JobStatus, id job.ID, interval time.Duration) *progressReporter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &progressReporter{
		statuses: statuses,
		id:       id,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

func (p *progressReporter) Report(ctx context.Context, progress float64) error {
	logger := zap.S().Named("runner").With("job_id", p.id)

	row, err := p.statuses.Get(ctx, p.id)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		return fmt.Errorf("status of job %s disappeared: %w", p.id, err)
	case err != nil:
		logger.Warnw("failed to read job status", "error", err)
	case row.CancelRequested:
		return fmt.Errorf("%w: %w", job.ErrCancelled, errCancelRequested)
	}

	// the first report moves the job to running whatever the rate
	if !p.limiter.Allow() && p.started {
		return nil
	}
	p.started = true

	if err := p.statuses.UpdateProgress(ctx, p.id, progress); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return fmt.Errorf("status of job %s disappeared: %w", p.id, err)
		}
		logger.Warnw("failed to record job progress", "error", err, "progress", progress)
	}
	return nil
}
