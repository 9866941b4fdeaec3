package jobs

import (
	"context"

	"github.com/riverqueue/river/rivertype"

	"github.com/picalc/pi-calculator/internal/store"
)

type JobCancelFunc func(ctx context.Context, jobID int64) (*rivertype.JobRow, error)

func (f JobCancelFunc) JobCancel(ctx context.Context, jobID int64) (*rivertype.JobRow, error) {
	return f(ctx, jobID)
}

// NewCancelOnlyClient builds a Client without a River connection.
func NewCancelOnlyClient(riverJobs store.RiverJob, cancel JobCancelFunc) *Client {
	return &Client{riverJobs: riverJobs, canceller: cancel}
}
