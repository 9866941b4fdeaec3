package store_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/picalc/pi-calculator/internal/config"
	"github.com/picalc/pi-calculator/internal/store"
	"github.com/picalc/pi-calculator/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// jobStatusContract runs the same scenarios against every JobStatus
// implementation.
func jobStatusContract(newStatus func() store.JobStatus) {
	var (
		status store.JobStatus
		ctx    context.Context
	)

	BeforeEach(func() {
		status = newStatus()
		ctx = context.TODO()
	})

	Context("create", func() {
		It("stores a queued status", func() {
			id := uuid.New()
			Expect(status.Create(ctx, id, 10)).To(Succeed())

			s, err := status.Get(ctx, id)
			Expect(err).To(BeNil())
			Expect(s.ID).To(Equal(id))
			Expect(s.Digits).To(Equal(10))
			Expect(s.State).To(Equal(model.JobStatusQueued))
			Expect(s.Progress).To(BeZero())
			Expect(s.Result).To(BeNil())
			Expect(s.IsTerminal()).To(BeFalse())
		})

		It("rejects a duplicated id", func() {
			id := uuid.New()
			Expect(status.Create(ctx, id, 10)).To(Succeed())
			Expect(status.Create(ctx, id, 10)).To(MatchError(store.ErrDuplicateKey))
		})

		It("returns not found for an unknown id", func() {
			_, err := status.Get(ctx, uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("progress", func() {
		It("moves the job to running", func() {
			id := uuid.New()
			Expect(status.Create(ctx, id, 10)).To(Succeed())
			Expect(status.UpdateProgress(ctx, id, 0.25)).To(Succeed())

			s, err := status.Get(ctx, id)
			Expect(err).To(BeNil())
			Expect(s.State).To(Equal(model.JobStatusRunning))
			Expect(s.Progress).To(BeNumerically("==", 0.25))
		})

		It("never goes backwards", func() {
			id := uuid.New()
			Expect(status.Create(ctx, id, 10)).To(Succeed())
			Expect(status.UpdateProgress(ctx, id, 0.5)).To(Succeed())
			Expect(status.UpdateProgress(ctx, id, 0.3)).To(Succeed())

			s, err := status.Get(ctx, id)
			Expect(err).To(BeNil())
			Expect(s.Progress).To(BeNumerically("==", 0.5))
		})

		It("rejects a value out of range", func() {
			id := uuid.New()
			Expect(status.Create(ctx, id, 10)).To(Succeed())
			Expect(status.UpdateProgress(ctx, id, 1.5)).To(MatchError(ContainSubstring("out of [0, 1]")))
			Expect(status.UpdateProgress(ctx, id, -0.1)).ToNot(Succeed())
		})

		It("returns not found for an unknown id", func() {
			Expect(status.UpdateProgress(ctx, uuid.New(), 0.1)).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("terminal states", func() {
		It("finishes a job with its result", func() {
			id := uuid.New()
			Expect(status.Create(ctx, id, 2)).To(Succeed())
			Expect(status.UpdateProgress(ctx, id, 0.5)).To(Succeed())
			Expect(status.Finish(ctx, id, "3.14")).To(Succeed())

			s, err := status.Get(ctx, id)
			Expect(err).To(BeNil())
			Expect(s.State).To(Equal(model.JobStatusFinished))
			Expect(s.Progress).To(BeNumerically("==", 1))
			Expect(s.Result).ToNot(BeNil())
			Expect(*s.Result).To(Equal("3.14"))
			Expect(s.FinishedAt).ToNot(BeNil())
			Expect(s.IsTerminal()).To(BeTrue())
		})

		It("fails a job with its cause", func() {
			id := uuid.New()
			Expect(status.Create(ctx, id, 2)).To(Succeed())
			Expect(status.Fail(ctx, id, "job cancelled", true)).To(Succeed())

			s, err := status.Get(ctx, id)
			Expect(err).To(BeNil())
			Expect(s.State).To(Equal(model.JobStatusFailed))
			Expect(s.Error).ToNot(BeNil())
			Expect(*s.Error).To(Equal("job cancelled"))
			Expect(s.Cancelled).To(BeTrue())
			Expect(s.Result).To(BeNil())
		})

		It("keeps the first terminal state", func() {
			id := uuid.New()
			Expect(status.Create(ctx, id, 2)).To(Succeed())
			Expect(status.Finish(ctx, id, "3.14")).To(Succeed())
			Expect(status.Fail(ctx, id, "boom", false)).To(Succeed())
			Expect(status.Finish(ctx, id, "3.15")).To(Succeed())
			Expect(status.UpdateProgress(ctx, id, 1)).To(Succeed())

			s, err := status.Get(ctx, id)
			Expect(err).To(BeNil())
			Expect(s.State).To(Equal(model.JobStatusFinished))
			Expect(*s.Result).To(Equal("3.14"))
			Expect(s.Error).To(BeNil())
		})

		It("returns not found for an unknown id", func() {
			Expect(status.Finish(ctx, uuid.New(), "3")).To(MatchError(store.ErrRecordNotFound))
			Expect(status.Fail(ctx, uuid.New(), "boom", false)).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("cancel", func() {
		It("flags a running job", func() {
			id := uuid.New()
			Expect(status.Create(ctx, id, 10)).To(Succeed())
			Expect(status.UpdateProgress(ctx, id, 0.1)).To(Succeed())

			s, err := status.RequestCancel(ctx, id)
			Expect(err).To(BeNil())
			Expect(s.CancelRequested).To(BeTrue())
			Expect(s.State).To(Equal(model.JobStatusRunning))
		})

		It("leaves a terminal job untouched", func() {
			id := uuid.New()
			Expect(status.Create(ctx, id, 10)).To(Succeed())
			Expect(status.Finish(ctx, id, "3.1415926536")).To(Succeed())

			s, err := status.RequestCancel(ctx, id)
			Expect(err).To(BeNil())
			Expect(s.CancelRequested).To(BeFalse())
			Expect(s.State).To(Equal(model.JobStatusFinished))
		})

		It("returns not found for an unknown id", func() {
			_, err := status.RequestCancel(ctx, uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("delete", func() {
		It("removes a status", func() {
			id := uuid.New()
			Expect(status.Create(ctx, id, 10)).To(Succeed())
			Expect(status.Delete(ctx, id)).To(Succeed())

			_, err := status.Get(ctx, id)
			Expect(err).To(MatchError(store.ErrRecordNotFound))
			Expect(status.Delete(ctx, id)).To(MatchError(store.ErrRecordNotFound))
		})
	})
}

var _ = Describe("job status store", func() {
	Describe("gorm", Ordered, func() {
		var (
			s      store.Store
			gormdb *gorm.DB
		)

		BeforeAll(func() {
			cfg := config.NewDefault()
			db, err := store.InitDB(cfg)
			Expect(err).To(BeNil())
			gormdb = db

			s = store.NewStore(db)
			Expect(s.InitialMigration(context.TODO())).To(Succeed())
			Expect(s.Ping(context.TODO())).To(Succeed())
		})

		AfterAll(func() {
			s.Close()
		})

		jobStatusContract(func() store.JobStatus { return s.JobStatus() })

		It("deletes expired terminal statuses only", func() {
			ctx := context.TODO()
			finished, running := uuid.New(), uuid.New()
			Expect(s.JobStatus().Create(ctx, finished, 1)).To(Succeed())
			Expect(s.JobStatus().Create(ctx, running, 1)).To(Succeed())
			Expect(s.JobStatus().Finish(ctx, finished, "3.1")).To(Succeed())
			Expect(s.JobStatus().UpdateProgress(ctx, running, 0.2)).To(Succeed())

			tx := gormdb.Model(&model.JobStatus{}).Where("id = ?", finished).
				Update("finished_at", time.Now().UTC().Add(-48*time.Hour))
			Expect(tx.Error).To(BeNil())

			n, err := s.JobStatus().DeleteExpired(ctx, time.Now().UTC().Add(-24*time.Hour))
			Expect(err).To(BeNil())
			Expect(n).To(BeNumerically(">=", 1))

			_, err = s.JobStatus().Get(ctx, finished)
			Expect(err).To(MatchError(store.ErrRecordNotFound))
			_, err = s.JobStatus().Get(ctx, running)
			Expect(err).To(BeNil())
		})
	})

	Describe("redis", Ordered, func() {
		var (
			mr     *miniredis.Miniredis
			client *redis.Client
		)

		BeforeAll(func() {
			mr = miniredis.NewMiniRedis()
			Expect(mr.Start()).To(Succeed())
			client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		})

		AfterAll(func() {
			client.Close()
			mr.Close()
		})

		jobStatusContract(func() store.JobStatus {
			return store.NewRedisJobStatusStore(client, time.Hour)
		})

		It("expires terminal statuses after the retention period", func() {
			ctx := context.TODO()
			status := store.NewRedisJobStatusStore(client, time.Hour)
			id := uuid.New()
			Expect(status.Create(ctx, id, 1)).To(Succeed())
			Expect(status.Finish(ctx, id, "3.1")).To(Succeed())

			mr.FastForward(2 * time.Hour)

			_, err := status.Get(ctx, id)
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})
})
