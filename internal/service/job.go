package service

import (
	"context"
	"errors"
	"time"

	"github.com/picalc/pi-calculator/internal/events"
	"github.com/picalc/pi-calculator/internal/job"
	"github.com/picalc/pi-calculator/internal/service/mappers"
	"github.com/picalc/pi-calculator/internal/store"
	"github.com/picalc/pi-calculator/internal/validator"
	"github.com/picalc/pi-calculator/pkg/metrics"
	"go.uber.org/zap"
)

const rollbackTimeout = 5 * time.Second

// Queue hands tasks over to the workers.
type Queue interface {
	Enqueue(ctx context.Context, task job.Task) error
	// Cancel interrupts the task if a worker runs it. Unknown ids are ignored.
	Cancel(ctx context.Context, id job.ID) error
}

type EventPublisher interface {
	Publish(ctx context.Context, kind, subject string, v any) error
}

type JobService struct {
	statuses  store.JobStatus
	queue     Queue
	validator *validator.Validator
	maxDigits int
	events    EventPublisher
}

type JobServiceOption func(*JobService)

func WithEventPublisher(p EventPublisher) JobServiceOption {
	return func(s *JobService) {
		s.events = p
	}
}

func NewJobService(statuses store.JobStatus, queue Queue, maxDigits int, opts ...JobServiceOption) *JobService {
	v := validator.NewValidator()
	v.Register(validator.NewJobValidationRules(maxDigits)...)

	s := &JobService{
		statuses:  statuses,
		queue:     queue,
		validator: v,
		maxDigits: maxDigits,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates params, records the job as queued and enqueues it. It
// returns as soon as the job is enqueued.
func (s *JobService) Submit(ctx context.Context, params job.Params) (job.ID, error) {
	logger := zap.S().Named("job_service")

	if err := s.validator.Struct(params); err != nil {
		if params.Digits < 0 {
			return job.ID{}, NewErrInvalidParameters("n must be a non-negative integer, got %d", params.Digits)
		}
		return job.ID{}, NewErrInvalidParameters("maximum decimal places is %d, got %d", s.maxDigits, params.Digits)
	}

	id := job.NewID()
	if err := s.statuses.Create(ctx, id, params.Digits); err != nil {
		logger.Errorw("failed to record job", "error", err, "job_id", id)
		return job.ID{}, NewErrInfrastructure("recording job", err)
	}

	if err := s.queue.Enqueue(ctx, job.Task{ID: id, Params: params}); err != nil {
		logger.Errorw("failed to enqueue job", "error", err, "job_id", id)
		s.rollback(id)
		return job.ID{}, NewErrInfrastructure("enqueuing job", err)
	}

	metrics.IncreaseJobsSubmittedMetric()
	s.publish(ctx, events.JobSubmittedKind, events.JobEvent{
		JobID:  id.String(),
		Digits: params.Digits,
		State:  string(job.StateQueued),
	})
	logger.Infow("job submitted", "job_id", id, "digits", params.Digits)

	return id, nil
}

// Get returns the latest status of a job, Unknown when nothing is recorded.
func (s *JobService) Get(ctx context.Context, id job.ID) (job.Status, error) {
	row, err := s.statuses.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return job.Unknown{}, nil
		}
		return nil, NewErrInfrastructure("reading job status", err)
	}

	status, err := mappers.StatusFromModel(*row)
	if err != nil {
		zap.S().Named("job_service").Errorw("unreadable job status", "error", err, "job_id", id)
		return nil, NewErrInfrastructure("reading job status", err)
	}
	return status, nil
}

// Cancel asks the worker running the job to stop. The worker records the
// terminal status, so the returned status is usually still non-terminal.
func (s *JobService) Cancel(ctx context.Context, id job.ID) (job.Status, error) {
	logger := zap.S().Named("job_service")

	row, err := s.statuses.RequestCancel(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, NewErrInfrastructure("requesting cancellation", err)
	}

	status, err := mappers.StatusFromModel(*row)
	if err != nil {
		return nil, NewErrInfrastructure("reading job status", err)
	}
	if status.State().Terminal() {
		return nil, NewErrJobAlreadyCompleted(id, status.State())
	}

	if err := s.queue.Cancel(ctx, id); err != nil {
		// the flag is set, the worker stops at its next checkpoint anyway
		logger.Warnw("failed to interrupt job", "error", err, "job_id", id)
	}

	logger.Infow("job cancellation requested", "job_id", id)
	return status, nil
}

// rollback removes the queued status of a job that could not be enqueued.
func (s *JobService) rollback(id job.ID) {
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()

	if err := s.statuses.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		zap.S().Named("job_service").Errorw("failed to remove status of unqueued job", "error", err, "job_id", id)
	}
}

func (s *JobService) publish(ctx context.Context, kind string, e events.JobEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, kind, e.JobID, e); err != nil {
		zap.S().Named("job_service").Errorw("failed to write event", "error", err, "event_kind", kind)
	}
}
