package events

import "time"

// JobEvent is the data of every job lifecycle event.
type JobEvent struct {
	JobID     string        `json:"job_id"`
	Digits    int           `json:"digits"`
	State     string        `json:"state"`
	Result    string        `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	Cancelled bool          `json:"cancelled,omitempty"`
	Duration  time.Duration `json:"duration_ns,omitempty"`
}
