package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	api "github.com/picalc/pi-calculator/api/v1alpha1"
)

// PiClient is an HTTP client for the pi calculator API
type PiClient struct {
	baseURL    string
	httpClient *http.Client
}

// APIError is returned when the server answers with an error status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

func NewPiClient(baseURL string, timeout time.Duration) *PiClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &PiClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *PiClient) CreateJob(ctx context.Context, digits int) (uuid.UUID, error) {
	body, err := json.Marshal(api.JobCreate{Digits: &digits})
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to marshal request")
	}

	var created api.JobCreated
	if err := c.do(ctx, http.MethodPost, "/api/v1/jobs", bytes.NewReader(body), http.StatusCreated, &created); err != nil {
		return uuid.Nil, errors.Wrap(err, "creating job")
	}
	return created.JobId, nil
}

func (c *PiClient) GetJob(ctx context.Context, id uuid.UUID) (*api.JobStatus, error) {
	var status api.JobStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+id.String(), nil, http.StatusOK, &status); err != nil {
		return nil, errors.Wrapf(err, "reading job %s", id)
	}
	return &status, nil
}

func (c *PiClient) CancelJob(ctx context.Context, id uuid.UUID) (*api.JobStatus, error) {
	var status api.JobStatus
	if err := c.do(ctx, http.MethodPost, "/api/v1/jobs/"+id.String()+"/cancel", nil, http.StatusOK, &status); err != nil {
		return nil, errors.Wrapf(err, "cancelling job %s", id)
	}
	return &status, nil
}

// WaitJob polls the job every interval until it leaves the PROGRESS state.
// onProgress, when set, sees every polled status.
func (c *PiClient) WaitJob(ctx context.Context, id uuid.UUID, interval time.Duration, onProgress func(*api.JobStatus)) (*api.JobStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.GetJob(ctx, id)
		if err != nil {
			return nil, err
		}
		if onProgress != nil {
			onProgress(status)
		}
		if status.State != api.JobStateProgress {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "waiting for job %s", id)
		case <-ticker.C:
		}
	}
}

func (c *PiClient) HealthCheck(ctx context.Context) error {
	var health api.Health
	return c.do(ctx, http.MethodGet, "/health", nil, http.StatusOK, &health)
}

func (c *PiClient) do(ctx context.Context, method, path string, body io.Reader, expected int, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "failed to call pi calculator")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != expected {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
		var e api.Error
		if json.Unmarshal(bodyBytes, &e) == nil && e.Message != "" {
			apiErr.Message = e.Message
		}
		return apiErr
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
