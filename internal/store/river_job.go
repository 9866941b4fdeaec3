package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const RiverJobStateRunning = "running"

type RiverJob interface {
	GetRunningJob(ctx context.Context, jobID uuid.UUID) (*int64, error)
}

type RiverJobStore struct {
	db *gorm.DB
}

var _ RiverJob = (*RiverJobStore)(nil)

func NewRiverJobStore(db *gorm.DB) RiverJob {
	return &RiverJobStore{db: db}
}

// GetRunningJob finds the running River job carrying the given pi job id in
// its args. Returns nil if the job is not running.
func (r *RiverJobStore) GetRunningJob(ctx context.Context, jobID uuid.UUID) (*int64, error) {
	var riverID int64

	err := r.db.WithContext(ctx).
		Table("river_job").
		Select("id").
		Where("state = ?", RiverJobStateRunning).
		Where("args->>'job_id' = ?", jobID.String()).
		Order("id DESC").
		Limit(1).
		Scan(&riverID).Error

	if err != nil {
		return nil, err
	}

	if riverID == 0 {
		return nil, nil
	}

	return &riverID, nil
}
