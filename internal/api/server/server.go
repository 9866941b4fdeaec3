// Package server binds HTTP requests to a StrictServerInterface and writes
// the typed responses it returns.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	api "github.com/picalc/pi-calculator/api/v1alpha1"
)

type StrictServerInterface interface {
	// (GET /)
	GetApiDocs(ctx context.Context, request GetApiDocsRequestObject) (GetApiDocsResponseObject, error)
	// (GET /health)
	Health(ctx context.Context, request HealthRequestObject) (HealthResponseObject, error)
	// (POST /api/v1/jobs)
	CreateJob(ctx context.Context, request CreateJobRequestObject) (CreateJobResponseObject, error)
	// (GET /api/v1/jobs/{id})
	GetJob(ctx context.Context, request GetJobRequestObject) (GetJobResponseObject, error)
	// (POST /api/v1/jobs/{id}/cancel)
	CancelJob(ctx context.Context, request CancelJobRequestObject) (CancelJobResponseObject, error)
	// (GET /calculate_pi)
	CalculatePi(ctx context.Context, request CalculatePiRequestObject) (CalculatePiResponseObject, error)
	// (GET /check_progress)
	CheckProgress(ctx context.Context, request CheckProgressRequestObject) (CheckProgressResponseObject, error)
}

// HandlerFromMux registers the routes of si on r.
func HandlerFromMux(si StrictServerInterface, r chi.Router) http.Handler {
	w := &wrapper{handler: si}

	r.Get("/", w.GetApiDocs)
	r.Get("/health", w.Health)
	r.Post("/api/v1/jobs", w.CreateJob)
	r.Get("/api/v1/jobs/{id}", w.GetJob)
	r.Post("/api/v1/jobs/{id}/cancel", w.CancelJob)
	r.Get("/calculate_pi", w.CalculatePi)
	r.Get("/check_progress", w.CheckProgress)

	return r
}

type wrapper struct {
	handler StrictServerInterface
}

func (w *wrapper) GetApiDocs(rw http.ResponseWriter, r *http.Request) {
	resp, err := w.handler.GetApiDocs(r.Context(), GetApiDocsRequestObject{})
	visit(rw, r, resp, err)
}

func (w *wrapper) Health(rw http.ResponseWriter, r *http.Request) {
	resp, err := w.handler.Health(r.Context(), HealthRequestObject{})
	visit(rw, r, resp, err)
}

func (w *wrapper) CreateJob(rw http.ResponseWriter, r *http.Request) {
	var body api.JobCreate
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		visit(rw, r, CreateJob400JSONResponse{Message: "invalid request body: " + err.Error()}, nil)
		return
	}

	resp, err := w.handler.CreateJob(r.Context(), CreateJobRequestObject{Body: &body})
	visit(rw, r, resp, err)
}

func (w *wrapper) GetJob(rw http.ResponseWriter, r *http.Request) {
	resp, err := w.handler.GetJob(r.Context(), GetJobRequestObject{Id: chi.URLParam(r, "id")})
	visit(rw, r, resp, err)
}

func (w *wrapper) CancelJob(rw http.ResponseWriter, r *http.Request) {
	resp, err := w.handler.CancelJob(r.Context(), CancelJobRequestObject{Id: chi.URLParam(r, "id")})
	visit(rw, r, resp, err)
}

func (w *wrapper) CalculatePi(rw http.ResponseWriter, r *http.Request) {
	var params CalculatePiParams
	if r.URL.Query().Has("n") {
		n := r.URL.Query().Get("n")
		params.N = &n
	}

	resp, err := w.handler.CalculatePi(r.Context(), CalculatePiRequestObject{Params: params})
	visit(rw, r, resp, err)
}

func (w *wrapper) CheckProgress(rw http.ResponseWriter, r *http.Request) {
	var params CheckProgressParams
	if r.URL.Query().Has("task_id") {
		id := r.URL.Query().Get("task_id")
		params.TaskId = &id
	}

	resp, err := w.handler.CheckProgress(r.Context(), CheckProgressRequestObject{Params: params})
	visit(rw, r, resp, err)
}

// visit writes resp, or a 500 when the handler failed.
func visit(w http.ResponseWriter, r *http.Request, resp Response, err error) {
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, api.Error{Message: err.Error()})
		return
	}
	if resp == nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, api.Error{Message: "no response"})
		return
	}
	render.Status(r, resp.StatusCode())
	render.JSON(w, r, resp)
}
