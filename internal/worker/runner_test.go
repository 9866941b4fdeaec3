package worker_test

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/picalc/pi-calculator/internal/compute"
	"github.com/picalc/pi-calculator/internal/job"
	"github.com/picalc/pi-calculator/internal/store"
	"github.com/picalc/pi-calculator/internal/store/model"
	"github.com/picalc/pi-calculator/internal/worker"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("runner", Ordered, func() {
	var (
		s   store.Store
		ctx context.Context
	)

	BeforeAll(func() {
		s = newStore()
		ctx = context.TODO()
	})

	AfterAll(func() {
		s.Close()
	})

	Context("run", func() {
		It("finishes a job with its result", func() {
			statuses := &recordingStatus{JobStatus: s.JobStatus()}
			task := newTask(statuses, 10)

			r := worker.NewRunner(statuses, compute.NewPi(compute.DefaultPolicy()))
			Expect(r.Run(ctx, task)).To(Succeed())

			row, err := s.JobStatus().Get(ctx, task.ID)
			Expect(err).To(BeNil())
			Expect(row.State).To(Equal(model.JobStatusFinished))
			Expect(row.Progress).To(BeNumerically("==", 1))
			Expect(*row.Result).To(Equal("3.1415926536"))

			written := statuses.Written()
			Expect(written).ToNot(BeEmpty())
			Expect(written[0]).To(BeZero())
			Expect(sort.Float64sAreSorted(written)).To(BeTrue())
		})

		It("limits the rate of progress writes", func() {
			statuses := &recordingStatus{JobStatus: s.JobStatus()}
			task := newTask(statuses, 100)

			r := worker.NewRunner(statuses, compute.NewPi(compute.DefaultPolicy()), worker.WithProgressInterval(time.Hour))
			Expect(r.Run(ctx, task)).To(Succeed())

			Expect(statuses.Written()).To(Equal([]float64{0}))
			row, err := s.JobStatus().Get(ctx, task.ID)
			Expect(err).To(BeNil())
			Expect(row.State).To(Equal(model.JobStatusFinished))
		})

		It("records a failure of the computation", func() {
			task := newTask(s.JobStatus(), 10)
			computer := computerFunc(func(ctx context.Context, _ int, r compute.Reporter) (string, error) {
				if err := r.Report(ctx, 0.5); err != nil {
					return "", err
				}
				return "", errors.New("arithmetic fault")
			})

			r := worker.NewRunner(s.JobStatus(), computer)
			Expect(r.Run(ctx, task)).To(MatchError("arithmetic fault"))

			row, err := s.JobStatus().Get(ctx, task.ID)
			Expect(err).To(BeNil())
			Expect(row.State).To(Equal(model.JobStatusFailed))
			Expect(*row.Error).To(Equal("arithmetic fault"))
			Expect(row.Cancelled).To(BeFalse())
			Expect(row.Result).To(BeNil())
		})

		It("records a panic as a failure", func() {
			task := newTask(s.JobStatus(), 10)
			computer := computerFunc(func(context.Context, int, compute.Reporter) (string, error) {
				panic("boom")
			})

			r := worker.NewRunner(s.JobStatus(), computer)
			Expect(r.Run(ctx, task)).To(MatchError(ContainSubstring("boom")))

			row, err := s.JobStatus().Get(ctx, task.ID)
			Expect(err).To(BeNil())
			Expect(row.State).To(Equal(model.JobStatusFailed))
			Expect(*row.Error).To(Equal("internal error: boom"))
		})

		It("skips a job without status", func() {
			called := false
			computer := computerFunc(func(context.Context, int, compute.Reporter) (string, error) {
				called = true
				return "3", nil
			})

			r := worker.NewRunner(s.JobStatus(), computer)
			Expect(r.Run(ctx, job.Task{ID: job.NewID()})).To(Succeed())
			Expect(called).To(BeFalse())
		})

		It("leaves the job queued when its status cannot be read", func() {
			called := false
			computer := computerFunc(func(context.Context, int, compute.Reporter) (string, error) {
				called = true
				return "3", nil
			})
			task := newTask(s.JobStatus(), 1)

			r := worker.NewRunner(unreadableStatus{JobStatus: s.JobStatus()}, computer)
			Expect(r.Run(ctx, task)).To(MatchError(ContainSubstring("database is locked")))
			Expect(called).To(BeFalse())

			row, err := s.JobStatus().Get(ctx, task.ID)
			Expect(err).To(BeNil())
			Expect(row.State).To(Equal(model.JobStatusQueued))
		})

		It("skips a completed job", func() {
			task := newTask(s.JobStatus(), 0)
			Expect(s.JobStatus().Finish(ctx, task.ID, "3")).To(Succeed())

			r := worker.NewRunner(s.JobStatus(), computerFunc(func(context.Context, int, compute.Reporter) (string, error) {
				return "4", nil
			}))
			Expect(r.Run(ctx, task)).To(Succeed())

			row, err := s.JobStatus().Get(ctx, task.ID)
			Expect(err).To(BeNil())
			Expect(*row.Result).To(Equal("3"))
		})
	})

	Context("cancel", func() {
		It("does not start a job cancelled while queued", func() {
			task := newTask(s.JobStatus(), 10)
			_, err := s.JobStatus().RequestCancel(ctx, task.ID)
			Expect(err).To(BeNil())

			r := worker.NewRunner(s.JobStatus(), compute.NewPi(compute.DefaultPolicy()))
			Expect(r.Run(ctx, task)).To(MatchError(job.ErrCancelled))

			row, err := s.JobStatus().Get(ctx, task.ID)
			Expect(err).To(BeNil())
			Expect(row.State).To(Equal(model.JobStatusFailed))
			Expect(row.Cancelled).To(BeTrue())
			Expect(*row.Error).To(HavePrefix("job cancelled"))
		})

		It("stops a running job at its next checkpoint", func() {
			task := newTask(s.JobStatus(), 10)
			computer := computerFunc(func(ctx context.Context, digits int, r compute.Reporter) (string, error) {
				if err := r.Report(ctx, 0.1); err != nil {
					return "", err
				}
				_, err := s.JobStatus().RequestCancel(ctx, task.ID)
				Expect(err).To(BeNil())
				return reportUntilStopped(ctx, digits, r)
			})

			r := worker.NewRunner(s.JobStatus(), computer)
			Expect(r.Run(ctx, task)).To(MatchError(job.ErrCancelled))

			row, err := s.JobStatus().Get(ctx, task.ID)
			Expect(err).To(BeNil())
			Expect(row.State).To(Equal(model.JobStatusFailed))
			Expect(row.Cancelled).To(BeTrue())
			Expect(row.Progress).To(BeNumerically(">=", 0.1))
		})

		It("stops a job running past its timeout", func() {
			task := newTask(s.JobStatus(), 10)
			policy := compute.Policy{GuardDigits: compute.DefaultGuardDigits, MinSteps: 10000, StepDelay: 5 * time.Millisecond}

			r := worker.NewRunner(s.JobStatus(), compute.NewPi(policy), worker.WithTimeout(50*time.Millisecond))
			err := r.Run(ctx, task)
			Expect(err).To(MatchError(job.ErrCancelled))

			row, err := s.JobStatus().Get(ctx, task.ID)
			Expect(err).To(BeNil())
			Expect(row.State).To(Equal(model.JobStatusFailed))
			Expect(row.Cancelled).To(BeTrue())
			Expect(*row.Error).To(ContainSubstring("timeout after 50ms"))
		})

		It("records the cancellation of its context", func() {
			task := newTask(s.JobStatus(), 10)
			runCtx, cancel := context.WithCancel(ctx)
			computer := computerFunc(func(ctx context.Context, digits int, r compute.Reporter) (string, error) {
				cancel()
				return reportUntilStopped(ctx, digits, r)
			})

			r := worker.NewRunner(s.JobStatus(), computer)
			Expect(r.Run(runCtx, task)).To(MatchError(job.ErrCancelled))

			row, err := s.JobStatus().Get(ctx, task.ID)
			Expect(err).To(BeNil())
			Expect(row.State).To(Equal(model.JobStatusFailed))
			Expect(row.Cancelled).To(BeTrue())
			Expect(*row.Error).To(Equal("job cancelled: context canceled"))
		})
	})
})
