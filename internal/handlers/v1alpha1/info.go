package v1alpha1

import (
	"context"

	api "github.com/picalc/pi-calculator/api/v1alpha1"
	"github.com/picalc/pi-calculator/internal/api/server"
)

// (GET /)
func (h *ServiceHandler) GetApiDocs(ctx context.Context, request server.GetApiDocsRequestObject) (server.GetApiDocsResponseObject, error) {
	return server.GetApiDocs200JSONResponse(api.Docs()), nil
}

// (GET /health)
func (h *ServiceHandler) Health(ctx context.Context, request server.HealthRequestObject) (server.HealthResponseObject, error) {
	return server.Health200JSONResponse(api.Health{Status: "ok"}), nil
}
