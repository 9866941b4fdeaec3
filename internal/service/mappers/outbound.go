package mappers

import (
	"fmt"

	"github.com/picalc/pi-calculator/internal/job"
	"github.com/picalc/pi-calculator/internal/store/model"
)

// StatusFromModel converts a stored status into its job.Status variant. A
// row in a state it does not know is an error.
func StatusFromModel(m model.JobStatus) (job.Status, error) {
	switch m.State {
	case model.JobStatusQueued:
		return job.Queued{}, nil
	case model.JobStatusRunning:
		return job.Running{Progress: m.Progress}, nil
	case model.JobStatusFinished:
		if m.Result == nil {
			return nil, fmt.Errorf("finished job %s has no result", m.ID)
		}
		return job.Finished{Result: *m.Result}, nil
	case model.JobStatusFailed:
		failed := job.Failed{Cancelled: m.Cancelled}
		if m.Error != nil {
			failed.Error = *m.Error
		}
		return failed, nil
	default:
		return nil, fmt.Errorf("job %s has unknown state %q", m.ID, m.State)
	}
}
