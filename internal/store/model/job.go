package model

import (
	"time"

	"github.com/google/uuid"
)

// Job status constants, as stored in job_statuses.state
const (
	JobStatusQueued   = "queued"
	JobStatusRunning  = "running"
	JobStatusFinished = "finished"
	JobStatusFailed   = "failed"
)

// JobStatus is the latest published status of a job. It is written by the
// dispatcher once (queued) and by the worker that owns the job afterwards.
type JobStatus struct {
	ID              uuid.UUID `gorm:"primaryKey;type:uuid"`
	Digits          int       `gorm:"not null"`
	State           string    `gorm:"not null;index"`
	Progress        float64   `gorm:"not null;default:0"`
	Result          *string
	Error           *string
	Cancelled       bool `gorm:"not null;default:false"`
	CancelRequested bool `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	FinishedAt      *time.Time `gorm:"index"`
}

func (JobStatus) TableName() string {
	return "job_statuses"
}

func (j JobStatus) IsTerminal() bool {
	return j.State == JobStatusFinished || j.State == JobStatusFailed
}

func NonTerminalStates() []string {
	return []string{JobStatusQueued, JobStatusRunning}
}
