package v1alpha1

import (
	"context"
	"fmt"

	api "github.com/picalc/pi-calculator/api/v1alpha1"
	"github.com/picalc/pi-calculator/internal/api/server"
	"github.com/picalc/pi-calculator/internal/handlers/v1alpha1/mappers"
	"github.com/picalc/pi-calculator/internal/job"
	"github.com/picalc/pi-calculator/internal/service"
	"github.com/picalc/pi-calculator/pkg/requestid"
	"go.uber.org/zap"
)

// (POST /api/v1/jobs)
func (h *ServiceHandler) CreateJob(ctx context.Context, request server.CreateJobRequestObject) (server.CreateJobResponseObject, error) {
	if request.Body == nil || request.Body.Digits == nil {
		return server.CreateJob400JSONResponse{Message: "digits is required", RequestId: requestid.FromContextPtr(ctx)}, nil
	}

	id, err := h.jobSrv.Submit(ctx, job.Params{Digits: *request.Body.Digits})
	if err != nil {
		switch err.(type) {
		case *service.ErrInvalidParameters:
			return server.CreateJob400JSONResponse{Message: err.Error(), RequestId: requestid.FromContextPtr(ctx)}, nil
		case *service.ErrInfrastructure:
			logError(ctx, "create_job", err)
			return server.CreateJob503JSONResponse{Message: fmt.Sprintf("failed to create job: %v", err), RequestId: requestid.FromContextPtr(ctx)}, nil
		default:
			return nil, err
		}
	}

	return server.CreateJob201JSONResponse(api.JobCreated{JobId: id}), nil
}

// (GET /api/v1/jobs/{id})
func (h *ServiceHandler) GetJob(ctx context.Context, request server.GetJobRequestObject) (server.GetJobResponseObject, error) {
	id, err := job.ParseID(request.Id)
	if err != nil {
		return server.GetJob400JSONResponse{Message: err.Error(), RequestId: requestid.FromContextPtr(ctx)}, nil
	}

	status, err := h.jobSrv.Get(ctx, id)
	if err != nil {
		switch err.(type) {
		case *service.ErrInfrastructure:
			logError(ctx, "get_job", err)
			return server.GetJob503JSONResponse{Message: fmt.Sprintf("failed to get job: %v", err), RequestId: requestid.FromContextPtr(ctx)}, nil
		default:
			return nil, err
		}
	}

	return server.GetJob200JSONResponse(mappers.StatusToApi(status)), nil
}

// (POST /api/v1/jobs/{id}/cancel)
func (h *ServiceHandler) CancelJob(ctx context.Context, request server.CancelJobRequestObject) (server.CancelJobResponseObject, error) {
	id, err := job.ParseID(request.Id)
	if err != nil {
		return server.CancelJob400JSONResponse{Message: err.Error(), RequestId: requestid.FromContextPtr(ctx)}, nil
	}

	status, err := h.jobSrv.Cancel(ctx, id)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			return server.CancelJob404JSONResponse{Message: err.Error(), RequestId: requestid.FromContextPtr(ctx)}, nil
		case *service.ErrJobAlreadyCompleted:
			return server.CancelJob409JSONResponse{Message: err.Error(), RequestId: requestid.FromContextPtr(ctx)}, nil
		case *service.ErrInfrastructure:
			logError(ctx, "cancel_job", err)
			return server.CancelJob503JSONResponse{Message: fmt.Sprintf("failed to cancel job: %v", err), RequestId: requestid.FromContextPtr(ctx)}, nil
		default:
			return nil, err
		}
	}

	return server.CancelJob200JSONResponse(mappers.StatusToApi(status)), nil
}

func logError(ctx context.Context, operation string, err error) {
	zap.S().Named("job_handler").Errorw("request failed", "operation", operation, "error", err, "request_id", requestid.FromContext(ctx))
}
