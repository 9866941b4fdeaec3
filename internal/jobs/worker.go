package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/picalc/pi-calculator/internal/job"
	"github.com/picalc/pi-calculator/internal/worker"
)

const JobKind = "pi_compute"

// PiArgs is stored in river_job.args as JSON.
type PiArgs struct {
	JobID  uuid.UUID `json:"job_id"`
	Digits int       `json:"digits"`
}

func (PiArgs) Kind() string {
	return JobKind
}

func (PiArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       DefaultQueue,
		MaxAttempts: MaxJobRetries,
	}
}

type PiWorker struct {
	river.WorkerDefaults[PiArgs]
	runner *worker.Runner
}

func NewPiWorker(runner *worker.Runner) *PiWorker {
	return &PiWorker{runner: runner}
}

// Timeout disables the River timeout, the runner enforces its own.
func (w *PiWorker) Timeout(_ *river.Job[PiArgs]) time.Duration {
	return -1
}

func (w *PiWorker) Work(ctx context.Context, j *river.Job[PiArgs]) error {
	err := w.runner.Run(ctx, job.Task{
		ID:     j.Args.JobID,
		Params: job.Params{Digits: j.Args.Digits},
	})
	if err == nil {
		return nil
	}

	// a cancelled job already has its terminal status, River only needs to
	// know the outcome
	if errors.Is(err, job.ErrCancelled) {
		return river.JobCancel(err)
	}
	return err
}
