package v1alpha1

import (
	"github.com/picalc/pi-calculator/internal/api/server"
	"github.com/picalc/pi-calculator/internal/service"
)

type ServiceHandler struct {
	jobSrv  *service.JobService
	baseURL string
}

// Make sure we conform to StrictServerInterface
var _ server.StrictServerInterface = (*ServiceHandler)(nil)

// NewServiceHandler returns the API handlers. baseURL prefixes the progress
// links returned on submission.
func NewServiceHandler(jobService *service.JobService, baseURL string) *ServiceHandler {
	return &ServiceHandler{
		jobSrv:  jobService,
		baseURL: baseURL,
	}
}
