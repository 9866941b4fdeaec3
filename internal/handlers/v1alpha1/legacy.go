package v1alpha1

import (
	"context"
	"fmt"
	"strconv"

	api "github.com/picalc/pi-calculator/api/v1alpha1"
	"github.com/picalc/pi-calculator/internal/api/server"
	"github.com/picalc/pi-calculator/internal/handlers/v1alpha1/mappers"
	"github.com/picalc/pi-calculator/internal/job"
	"github.com/picalc/pi-calculator/internal/service"
	"github.com/picalc/pi-calculator/pkg/requestid"
)

// (GET /calculate_pi)
func (h *ServiceHandler) CalculatePi(ctx context.Context, request server.CalculatePiRequestObject) (server.CalculatePiResponseObject, error) {
	if request.Params.N == nil {
		return server.CalculatePi400JSONResponse{Message: "Please provide a valid integer for n parameter", RequestId: requestid.FromContextPtr(ctx)}, nil
	}
	n, err := strconv.Atoi(*request.Params.N)
	if err != nil {
		return server.CalculatePi400JSONResponse{Message: "Please provide a valid integer for n parameter", RequestId: requestid.FromContextPtr(ctx)}, nil
	}

	id, err := h.jobSrv.Submit(ctx, job.Params{Digits: n})
	if err != nil {
		switch err.(type) {
		case *service.ErrInvalidParameters:
			return server.CalculatePi400JSONResponse{Message: err.Error(), RequestId: requestid.FromContextPtr(ctx)}, nil
		case *service.ErrInfrastructure:
			logError(ctx, "calculate_pi", err)
			return server.CalculatePi503JSONResponse{Message: fmt.Sprintf("failed to start calculation: %v", err), RequestId: requestid.FromContextPtr(ctx)}, nil
		default:
			return nil, err
		}
	}

	return server.CalculatePi200JSONResponse(api.CalculatePiResponse{
		TaskId:           id.String(),
		JobId:            id,
		Message:          fmt.Sprintf("Started calculating pi to %d decimal places", n),
		Status:           "started",
		CheckProgressUrl: fmt.Sprintf("%s/check_progress?task_id=%s", h.baseURL, id),
	}), nil
}

// (GET /check_progress)
//
// Ids that were never issued, including malformed ones, read as a job that
// has not started yet.
func (h *ServiceHandler) CheckProgress(ctx context.Context, request server.CheckProgressRequestObject) (server.CheckProgressResponseObject, error) {
	if request.Params.TaskId == nil || *request.Params.TaskId == "" {
		return server.CheckProgress400JSONResponse{Message: "Please provide task_id parameter", RequestId: requestid.FromContextPtr(ctx)}, nil
	}

	id, err := job.ParseID(*request.Params.TaskId)
	if err != nil {
		return server.CheckProgress200JSONResponse(mappers.StatusToApi(job.Unknown{})), nil
	}

	status, err := h.jobSrv.Get(ctx, id)
	if err != nil {
		switch err.(type) {
		case *service.ErrInfrastructure:
			logError(ctx, "check_progress", err)
			return server.CheckProgress503JSONResponse{Message: fmt.Sprintf("failed to check progress: %v", err), RequestId: requestid.FromContextPtr(ctx)}, nil
		default:
			return nil, err
		}
	}

	return server.CheckProgress200JSONResponse(mappers.StatusToApi(status)), nil
}
