package mappers

import (
	"fmt"

	api "github.com/picalc/pi-calculator/api/v1alpha1"
	"github.com/picalc/pi-calculator/internal/job"
)

func StatusToApi(s job.Status) api.JobStatus {
	switch v := s.(type) {
	case job.Unknown, job.Queued:
		return api.JobStatus{State: api.JobStateProgress, Progress: 0}
	case job.Running:
		return api.JobStatus{State: api.JobStateProgress, Progress: v.Progress}
	case job.Finished:
		result := v.Result
		return api.JobStatus{State: api.JobStateFinished, Progress: 1, Result: &result}
	case job.Failed:
		cause := v.Error
		return api.JobStatus{State: api.JobStateFailed, Progress: 0, Error: &cause}
	default:
		panic(fmt.Sprintf("unexpected job status %T", s))
	}
}
