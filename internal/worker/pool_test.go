package worker_test

import (
	"context"
	"time"

	"github.com/picalc/pi-calculator/internal/compute"
	"github.com/picalc/pi-calculator/internal/job"
	"github.com/picalc/pi-calculator/internal/store"
	"github.com/picalc/pi-calculator/internal/store/model"
	"github.com/picalc/pi-calculator/internal/worker"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var _ = Describe("pool", Ordered, func() {
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

	stateOf := func(id job.ID) func() string {
		return func() string {
			row, err := s.JobStatus().Get(ctx, id)
			if err != nil {
				return ""
			}
			return row.State
		}
	}

	It("runs the enqueued jobs", func() {
		pool := worker.NewPool(worker.NewRunner(s.JobStatus(), compute.NewPi(compute.DefaultPolicy())), worker.WithPoolConcurrency(2))
		Expect(pool.Start(ctx)).To(Succeed())
		defer pool.Stop(ctx)

		tasks := []job.Task{newTask(s.JobStatus(), 10), newTask(s.JobStatus(), 2), newTask(s.JobStatus(), 0)}
		for _, task := range tasks {
			Expect(pool.Enqueue(ctx, task)).To(Succeed())
		}

		for _, task := range tasks {
			Eventually(stateOf(task.ID)).WithTimeout(10 * time.Second).Should(Equal(model.JobStatusFinished))
		}

		row, err := s.JobStatus().Get(ctx, tasks[1].ID)
		Expect(err).To(BeNil())
		Expect(*row.Result).To(Equal("3.14"))
		row, err = s.JobStatus().Get(ctx, tasks[2].ID)
		Expect(err).To(BeNil())
		Expect(*row.Result).To(Equal("3"))
	})

	It("cancels a running job", func() {
		policy := compute.Policy{GuardDigits: compute.DefaultGuardDigits, MinSteps: 100000, StepDelay: time.Millisecond}
		pool := worker.NewPool(worker.NewRunner(s.JobStatus(), compute.NewPi(policy)), worker.WithPoolConcurrency(1))
		Expect(pool.Start(ctx)).To(Succeed())
		defer pool.Stop(ctx)

		task := newTask(s.JobStatus(), 10)
		Expect(pool.Enqueue(ctx, task)).To(Succeed())
		Eventually(stateOf(task.ID)).WithTimeout(5 * time.Second).Should(Equal(model.JobStatusRunning))

		Expect(pool.Cancel(ctx, task.ID)).To(Succeed())
		Eventually(stateOf(task.ID)).WithTimeout(5 * time.Second).Should(Equal(model.JobStatusFailed))

		row, err := s.JobStatus().Get(ctx, task.ID)
		Expect(err).To(BeNil())
		Expect(row.Cancelled).To(BeTrue())
		Expect(*row.Error).To(Equal("job cancelled: cancellation requested"))
	})

	It("logs a job it could not start as an error", func() {
		core, logs := observer.New(zap.InfoLevel)
		defer zap.ReplaceGlobals(zap.New(core))()

		pool := worker.NewPool(worker.NewRunner(unreadableStatus{JobStatus: s.JobStatus()}, compute.NewPi(compute.DefaultPolicy())))
		Expect(pool.Start(ctx)).To(Succeed())
		defer pool.Stop(ctx)

		task := newTask(s.JobStatus(), 1)
		Expect(pool.Enqueue(ctx, task)).To(Succeed())

		Eventually(func() int {
			return logs.FilterMessage("job execution failed").FilterLevelExact(zap.ErrorLevel).Len()
		}).WithTimeout(5 * time.Second).Should(Equal(1))
		Expect(stateOf(task.ID)()).To(Equal(model.JobStatusQueued))
	})

	It("ignores the cancellation of an unknown job", func() {
		pool := worker.NewPool(worker.NewRunner(s.JobStatus(), compute.NewPi(compute.DefaultPolicy())))
		Expect(pool.Cancel(ctx, job.NewID())).To(Succeed())
	})

	It("rejects jobs above its queue size", func() {
		release := make(chan struct{})
		computer := computerFunc(func(ctx context.Context, _ int, _ compute.Reporter) (string, error) {
			select {
			case <-release:
				return "3", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		})
		pool := worker.NewPool(worker.NewRunner(s.JobStatus(), computer), worker.WithPoolConcurrency(1), worker.WithQueueSize(1))
		Expect(pool.Start(ctx)).To(Succeed())

		first := newTask(s.JobStatus(), 0)
		Expect(pool.Enqueue(ctx, first)).To(Succeed())
		// the worker holds the first job, the second one fills the queue
		Eventually(func() error {
			return pool.Enqueue(ctx, newTask(s.JobStatus(), 0))
		}).Should(Succeed())
		Expect(pool.Enqueue(ctx, newTask(s.JobStatus(), 0))).To(MatchError(worker.ErrQueueFull))

		close(release)
		Expect(pool.Stop(ctx)).To(Succeed())
		Expect(stateOf(first.ID)()).To(Equal(model.JobStatusFinished))
	})

	It("cancels the running jobs when stopping times out", func() {
		started := make(chan struct{})
		computer := computerFunc(func(ctx context.Context, _ int, _ compute.Reporter) (string, error) {
			close(started)
			<-ctx.Done()
			return "", ctx.Err()
		})
		pool := worker.NewPool(worker.NewRunner(s.JobStatus(), computer), worker.WithPoolConcurrency(1))
		Expect(pool.Start(ctx)).To(Succeed())

		task := newTask(s.JobStatus(), 0)
		Expect(pool.Enqueue(ctx, task)).To(Succeed())
		Eventually(started).Should(BeClosed())

		stopCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		Expect(pool.Stop(stopCtx)).To(Succeed())

		row, err := s.JobStatus().Get(ctx, task.ID)
		Expect(err).To(BeNil())
		Expect(row.State).To(Equal(model.JobStatusFailed))
		Expect(*row.Error).To(Equal("job cancelled: worker shutdown"))
	})

	It("rejects jobs once stopped", func() {
		pool := worker.NewPool(worker.NewRunner(s.JobStatus(), compute.NewPi(compute.DefaultPolicy())))
		Expect(pool.Enqueue(ctx, newTask(s.JobStatus(), 1))).To(MatchError(worker.ErrPoolStopped))

		Expect(pool.Start(ctx)).To(Succeed())
		Expect(pool.Stop(ctx)).To(Succeed())
		Expect(pool.Enqueue(ctx, newTask(s.JobStatus(), 1))).To(MatchError(worker.ErrPoolStopped))
	})
})
