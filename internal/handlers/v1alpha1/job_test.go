package v1alpha1_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	api "github.com/picalc/pi-calculator/api/v1alpha1"
	"github.com/picalc/pi-calculator/internal/api/server"
	"github.com/picalc/pi-calculator/internal/compute"
	"github.com/picalc/pi-calculator/internal/config"
	handlers "github.com/picalc/pi-calculator/internal/handlers/v1alpha1"
	"github.com/picalc/pi-calculator/internal/job"
	"github.com/picalc/pi-calculator/internal/service"
	"github.com/picalc/pi-calculator/internal/store"
	"github.com/picalc/pi-calculator/internal/worker"
	"github.com/picalc/pi-calculator/pkg/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type computerFunc func(ctx context.Context, digits int, r compute.Reporter) (string, error)

func (f computerFunc) Compute(ctx context.Context, digits int, r compute.Reporter) (string, error) {
	return f(ctx, digits, r)
}

var _ = Describe("job handler", Ordered, func() {
	var (
		s       store.Store
		pool    *worker.Pool
		srv     *service.JobService
		handler *handlers.ServiceHandler
		ts      *httptest.Server
		ctx     context.Context
	)

	// faulty fails every computation of 13 digits.
	faulty := computerFunc(func(ctx context.Context, digits int, r compute.Reporter) (string, error) {
		if digits == 13 {
			return "", errors.New("arithmetic unit on fire")
		}
		return compute.NewPi(compute.DefaultPolicy()).Compute(ctx, digits, r)
	})

	BeforeAll(func() {
		ctx = context.TODO()
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		Expect(s.InitialMigration(ctx)).To(Succeed())

		pool = worker.NewPool(worker.NewRunner(s.JobStatus(), faulty))
		Expect(pool.Start(ctx)).To(Succeed())

		srv = service.NewJobService(s.JobStatus(), pool, 1000)
		handler = handlers.NewServiceHandler(srv, "http://pi.example.com")

		router := chi.NewRouter()
		router.Use(middleware.RequestID)
		ts = httptest.NewServer(server.HandlerFromMux(handler, router))
	})

	AfterAll(func() {
		ts.Close()
		Expect(pool.Stop(ctx)).To(Succeed())
		s.Close()
	})

	get := func(path string) (int, []byte) {
		resp, err := http.Get(ts.URL + path)
		Expect(err).To(BeNil())
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).To(BeNil())
		return resp.StatusCode, body
	}

	post := func(path, body string) (int, []byte) {
		resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
		Expect(err).To(BeNil())
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		Expect(err).To(BeNil())
		return resp.StatusCode, data
	}

	pollUntilDone := func(path string) api.JobStatus {
		var status api.JobStatus
		Eventually(func() api.JobState {
			code, body := get(path)
			Expect(code).To(Equal(http.StatusOK))
			Expect(json.Unmarshal(body, &status)).To(Succeed())
			return status.State
		}).WithTimeout(10 * time.Second).WithPolling(5 * time.Millisecond).ShouldNot(Equal(api.JobStateProgress))
		return status
	}

	Context("calculate_pi", func() {
		It("starts a job and reports the finished value", func() {
			code, body := get("/calculate_pi?n=10")
			Expect(code).To(Equal(http.StatusOK))

			var created api.CalculatePiResponse
			Expect(json.Unmarshal(body, &created)).To(Succeed())
			Expect(created.Status).To(Equal("started"))
			Expect(created.Message).To(Equal("Started calculating pi to 10 decimal places"))
			Expect(created.TaskId).To(Equal(created.JobId.String()))
			Expect(created.CheckProgressUrl).To(Equal("http://pi.example.com/check_progress?task_id=" + created.TaskId))

			path := "/check_progress?task_id=" + created.TaskId
			status := pollUntilDone(path)
			Expect(status.State).To(Equal(api.JobStateFinished))
			Expect(status.Progress).To(Equal(1.0))
			Expect(*status.Result).To(Equal("3.1415926536"))

			_, first := get(path)
			for range 3 {
				_, again := get(path)
				Expect(again).To(Equal(first))
			}
		})

		It("returns the integer part only for zero digits", func() {
			_, body := get("/calculate_pi?n=0")
			var created api.CalculatePiResponse
			Expect(json.Unmarshal(body, &created)).To(Succeed())

			status := pollUntilDone("/check_progress?task_id=" + created.TaskId)
			Expect(*status.Result).To(Equal("3"))
		})

		DescribeTable("rejects invalid input",
			func(query, message string) {
				code, body := get("/calculate_pi" + query)
				Expect(code).To(Equal(http.StatusBadRequest))

				var e api.Error
				Expect(json.Unmarshal(body, &e)).To(Succeed())
				Expect(e.Message).To(ContainSubstring(message))
				Expect(e.RequestId).ToNot(BeNil())
			},
			Entry("missing n", "", "Please provide a valid integer for n parameter"),
			Entry("non numeric n", "?n=abc", "Please provide a valid integer for n parameter"),
			Entry("negative n", "?n=-1", "non-negative"),
			Entry("too many digits", "?n=5000", "maximum decimal places is 1000"),
		)

		It("reports a failing computation as FAILED", func() {
			_, body := get("/calculate_pi?n=13")
			var created api.CalculatePiResponse
			Expect(json.Unmarshal(body, &created)).To(Succeed())

			status := pollUntilDone("/check_progress?task_id=" + created.TaskId)
			Expect(status.State).To(Equal(api.JobStateFailed))
			Expect(status.Result).To(BeNil())
			Expect(*status.Error).To(ContainSubstring("arithmetic unit on fire"))
		})
	})

	Context("check_progress", func() {
		It("requires a task id", func() {
			code, body := get("/check_progress")
			Expect(code).To(Equal(http.StatusBadRequest))
			Expect(string(body)).To(ContainSubstring("Please provide task_id parameter"))
		})

		It("reports an id never issued as not started", func() {
			for _, id := range []string{job.NewID().String(), "not-a-uuid"} {
				code, body := get("/check_progress?task_id=" + id)
				Expect(code).To(Equal(http.StatusOK))
				Expect(body).To(MatchJSON(`{"state":"PROGRESS","progress":0,"result":null}`))
			}
		})
	})

	Context("jobs api", func() {
		It("creates and reads a job", func() {
			code, body := post("/api/v1/jobs", `{"digits":5}`)
			Expect(code).To(Equal(http.StatusCreated))

			var created api.JobCreated
			Expect(json.Unmarshal(body, &created)).To(Succeed())

			status := pollUntilDone("/api/v1/jobs/" + created.JobId.String())
			Expect(*status.Result).To(Equal("3.14159"))
		})

		It("rejects a submission without digits", func() {
			code, _ := post("/api/v1/jobs", `{}`)
			Expect(code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a malformed body", func() {
			code, _ := post("/api/v1/jobs", `{"digits":`)
			Expect(code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a malformed id", func() {
			code, _ := get("/api/v1/jobs/nope")
			Expect(code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("cancel", func() {
		It("returns 404 for an unknown job", func() {
			resp, err := handler.CancelJob(ctx, server.CancelJobRequestObject{Id: job.NewID().String()})
			Expect(err).To(BeNil())
			Expect(reflect.TypeOf(resp)).To(Equal(reflect.TypeOf(server.CancelJob404JSONResponse{})))
		})

		It("returns 409 for a completed job", func() {
			id, err := srv.Submit(ctx, job.Params{Digits: 3})
			Expect(err).To(BeNil())
			Eventually(func() job.Status {
				status, err := srv.Get(ctx, id)
				Expect(err).To(BeNil())
				return status
			}).WithTimeout(10 * time.Second).Should(Equal(job.Finished{Result: "3.142"}))

			resp, err := handler.CancelJob(ctx, server.CancelJobRequestObject{Id: id.String()})
			Expect(err).To(BeNil())
			Expect(reflect.TypeOf(resp)).To(Equal(reflect.TypeOf(server.CancelJob409JSONResponse{})))
		})

		It("flags a job that has not completed", func() {
			id := job.NewID()
			Expect(s.JobStatus().Create(ctx, id, 10)).To(Succeed())

			resp, err := handler.CancelJob(ctx, server.CancelJobRequestObject{Id: id.String()})
			Expect(err).To(BeNil())
			Expect(reflect.TypeOf(resp)).To(Equal(reflect.TypeOf(server.CancelJob200JSONResponse{})))
			Expect(resp.(server.CancelJob200JSONResponse).State).To(Equal(api.JobStateProgress))

			row, err := s.JobStatus().Get(ctx, id)
			Expect(err).To(BeNil())
			Expect(row.CancelRequested).To(BeTrue())
		})
	})
})
