package server

import (
	"net/http"

	api "github.com/picalc/pi-calculator/api/v1alpha1"
)

// Response is implemented by every response object.
type Response interface {
	StatusCode() int
}

type CalculatePiParams struct {
	// N is kept raw so that a non numeric value is reported by the handler.
	N *string
}

type CheckProgressParams struct {
	TaskId *string
}

type GetApiDocsRequestObject struct{}

type GetApiDocsResponseObject interface {
	Response
	isGetApiDocsResponse()
}

type GetApiDocs200JSONResponse api.ApiDocs

func (GetApiDocs200JSONResponse) StatusCode() int { return http.StatusOK }
func (GetApiDocs200JSONResponse) isGetApiDocsResponse() {}

type HealthRequestObject struct{}

type HealthResponseObject interface {
	Response
	isHealthResponse()
}

type Health200JSONResponse api.Health

func (Health200JSONResponse) StatusCode() int { return http.StatusOK }
func (Health200JSONResponse) isHealthResponse() {}

type CreateJobRequestObject struct {
	Body *api.JobCreate
}

type CreateJobResponseObject interface {
	Response
	isCreateJobResponse()
}

type CreateJob201JSONResponse api.JobCreated

func (CreateJob201JSONResponse) StatusCode() int { return http.StatusCreated }
func (CreateJob201JSONResponse) isCreateJobResponse() {}

type CreateJob400JSONResponse api.Error

func (CreateJob400JSONResponse) StatusCode() int { return http.StatusBadRequest }
func (CreateJob400JSONResponse) isCreateJobResponse() {}

type CreateJob503JSONResponse api.Error

func (CreateJob503JSONResponse) StatusCode() int { return http.StatusServiceUnavailable }
func (CreateJob503JSONResponse) isCreateJobResponse() {}

type GetJobRequestObject struct {
	Id string
}

type GetJobResponseObject interface {
	Response
	isGetJobResponse()
}

type GetJob200JSONResponse api.JobStatus

func (GetJob200JSONResponse) StatusCode() int { return http.StatusOK }
func (GetJob200JSONResponse) isGetJobResponse() {}

type GetJob400JSONResponse api.Error

func (GetJob400JSONResponse) StatusCode() int { return http.StatusBadRequest }
func (GetJob400JSONResponse) isGetJobResponse() {}

type GetJob503JSONResponse api.Error

func (GetJob503JSONResponse) StatusCode() int { return http.StatusServiceUnavailable }
func (GetJob503JSONResponse) isGetJobResponse() {}

type CancelJobRequestObject struct {
	Id string
}

type CancelJobResponseObject interface {
	Response
	isCancelJobResponse()
}

type CancelJob200JSONResponse api.JobStatus

func (CancelJob200JSONResponse) StatusCode() int { return http.StatusOK }
func (CancelJob200JSONResponse) isCancelJobResponse() {}

type CancelJob400JSONResponse api.Error

func (CancelJob400JSONResponse) StatusCode() int { return http.StatusBadRequest }
func (CancelJob400JSONResponse) isCancelJobResponse() {}

type CancelJob404JSONResponse api.Error

func (CancelJob404JSONResponse) StatusCode() int { return http.StatusNotFound }
func (CancelJob404JSONResponse) isCancelJobResponse() {}

type CancelJob409JSONResponse api.Error

func (CancelJob409JSONResponse) StatusCode() int { return http.StatusConflict }
func (CancelJob409JSONResponse) isCancelJobResponse() {}

type CancelJob503JSONResponse api.Error

func (CancelJob503JSONResponse) StatusCode() int { return http.StatusServiceUnavailable }
func (CancelJob503JSONResponse) isCancelJobResponse() {}

type CalculatePiRequestObject struct {
	Params CalculatePiParams
}

type CalculatePiResponseObject interface {
	Response
	isCalculatePiResponse()
}

type CalculatePi200JSONResponse api.CalculatePiResponse

func (CalculatePi200JSONResponse) StatusCode() int { return http.StatusOK }
func (CalculatePi200JSONResponse) isCalculatePiResponse() {}

type CalculatePi400JSONResponse api.Error

func (CalculatePi400JSONResponse) StatusCode() int { return http.StatusBadRequest }
func (CalculatePi400JSONResponse) isCalculatePiResponse() {}

type CalculatePi503JSONResponse api.Error

func (CalculatePi503JSONResponse) StatusCode() int { return http.StatusServiceUnavailable }
func (CalculatePi503JSONResponse) isCalculatePiResponse() {}

type CheckProgressRequestObject struct {
	Params CheckProgressParams
}

type CheckProgressResponseObject interface {
	Response
	isCheckProgressResponse()
}

type CheckProgress200JSONResponse api.JobStatus

func (CheckProgress200JSONResponse) StatusCode() int { return http.StatusOK }
func (CheckProgress200JSONResponse) isCheckProgressResponse() {}

type CheckProgress400JSONResponse api.Error

func (CheckProgress400JSONResponse) StatusCode() int { return http.StatusBadRequest }
func (CheckProgress400JSONResponse) isCheckProgressResponse() {}

type CheckProgress503JSONResponse api.Error

func (CheckProgress503JSONResponse) StatusCode() int { return http.StatusServiceUnavailable }
func (CheckProgress503JSONResponse) isCheckProgressResponse() {}
