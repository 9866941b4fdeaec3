package v1alpha1

import "github.com/google/uuid"

// JobState is the coarse state shown to pollers.
type JobState string

const (
	JobStateProgress JobState = "PROGRESS"
	JobStateFinished JobState = "FINISHED"
	JobStateFailed   JobState = "FAILED"
)

// JobStatus is the polling view of a job. Result is set only when finished
// and Error only when failed.
type JobStatus struct {
	State    JobState `json:"state"`
	Progress float64  `json:"progress"`
	Result   *string  `json:"result"`
	Error    *string  `json:"error,omitempty"`
}

// JobCreate is the body of a job submission.
type JobCreate struct {
	Digits *int `json:"digits"`
}

type JobCreated struct {
	JobId uuid.UUID `json:"job_id"`
}

// CalculatePiResponse answers a submission through the query string route.
type CalculatePiResponse struct {
	TaskId           string    `json:"task_id"`
	JobId            uuid.UUID `json:"job_id"`
	Message          string    `json:"message"`
	Status           string    `json:"status"`
	CheckProgressUrl string    `json:"check_progress_url"`
}

type Error struct {
	Message   string  `json:"error"`
	RequestId *string `json:"request_id,omitempty"`
}

type Health struct {
	Status string `json:"status"`
}

type Endpoint struct {
	Url         string `json:"url"`
	Method      string `json:"method"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

// ApiDocs is served on the root path.
type ApiDocs struct {
	Message   string              `json:"message"`
	Endpoints map[string]Endpoint `json:"endpoints"`
}
