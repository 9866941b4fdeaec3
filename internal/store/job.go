package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/picalc/pi-calculator/internal/store/model"
	"gorm.io/gorm"
)

// JobStatus is the progress channel between the worker that owns a job and
// the readers polling it. Implementations keep the following invariants
// whatever the caller does:
//   - UpdateProgress never lowers the stored progress and never touches a
//     terminal status; such calls are no-ops.
//   - Finish and Fail apply only once; later terminal writes are no-ops.
//
// All methods return ErrRecordNotFound when nothing is stored for the id.
type JobStatus interface {
	Create(ctx context.Context, id uuid.UUID, digits int) error
	Get(ctx context.Context, id uuid.UUID) (*model.JobStatus, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, progress float64) error
	Finish(ctx context.Context, id uuid.UUID, result string) error
	Fail(ctx context.Context, id uuid.UUID, cause string, cancelled bool) error
	// RequestCancel raises the cancellation flag of a non-terminal job and
	// returns the stored status.
	RequestCancel(ctx context.Context, id uuid.UUID) (*model.JobStatus, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes terminal statuses finished before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type JobStatusStore struct {
	db *gorm.DB
}

// Make sure we conform to JobStatus interface
var _ JobStatus = (*JobStatusStore)(nil)

func NewJobStatusStore(db *gorm.DB) JobStatus {
	return &JobStatusStore{db: db}
}

func (s *JobStatusStore) Create(ctx context.Context, id uuid.UUID, digits int) error {
	status := model.JobStatus{
		ID:     id,
		Digits: digits,
		State:  model.JobStatusQueued,
	}
	if err := s.db.WithContext(ctx).Create(&status).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("creating job status: %w", err)
	}
	return nil
}

func (s *JobStatusStore) Get(ctx context.Context, id uuid.UUID) (*model.JobStatus, error) {
	var status model.JobStatus
	result := s.db.WithContext(ctx).First(&status, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying job status: %w", result.Error)
	}
	return &status, nil
}

func (s *JobStatusStore) UpdateProgress(ctx context.Context, id uuid.UUID, progress float64) error {
	if math.IsNaN(progress) || progress < 0 || progress > 1 {
		return fmt.Errorf("%w: progress %v out of [0, 1]", ErrInvalidUpdate, progress)
	}

	result := s.db.WithContext(ctx).Model(&model.JobStatus{}).
		Where("id = ? AND state IN ? AND progress <= ?", id, model.NonTerminalStates(), progress).
		Updates(map[string]any{
			"state":    model.JobStatusRunning,
			"progress": progress,
		})
	if result.Error != nil {
		return fmt.Errorf("updating job progress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return s.exists(ctx, id)
	}
	return nil
}

func (s *JobStatusStore) Finish(ctx context.Context, id uuid.UUID, result string) error {
	return s.terminate(ctx, id, map[string]any{
		"state":       model.JobStatusFinished,
		"progress":    1.0,
		"result":      result,
		"finished_at": time.Now().UTC(),
	})
}

func (s *JobStatusStore) Fail(ctx context.Context, id uuid.UUID, cause string, cancelled bool) error {
	return s.terminate(ctx, id, map[string]any{
		"state":       model.JobStatusFailed,
		"error":       cause,
		"cancelled":   cancelled,
		"finished_at": time.Now().UTC(),
	})
}

// RequestCancel flags a non terminal job and returns the status it left,
// read in the same transaction.
func (s *JobStatusStore) RequestCancel(ctx context.Context, id uuid.UUID) (*model.JobStatus, error) {
	var status model.JobStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.JobStatus{}).
			Where("id = ? AND state IN ?", id, model.NonTerminalStates()).
			Update("cancel_requested", true)
		if result.Error != nil {
			return fmt.Errorf("requesting job cancellation: %w", result.Error)
		}
		if err := tx.First(&status, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return fmt.Errorf("querying job status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *JobStatusStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&model.JobStatus{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *JobStatusStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("state IN ? AND finished_at < ?", []string{model.JobStatusFinished, model.JobStatusFailed}, before.UTC()).
		Delete(&model.JobStatus{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting expired job statuses: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *JobStatusStore) terminate(ctx context.Context, id uuid.UUID, values map[string]any) error {
	result := s.db.WithContext(ctx).Model(&model.JobStatus{}).
		Where("id = ? AND state IN ?", id, model.NonTerminalStates()).
		Updates(values)
	if result.Error != nil {
		return fmt.Errorf("writing terminal job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return s.exists(ctx, id)
	}
	return nil
}

func (s *JobStatusStore) exists(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.JobStatus{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("querying job status: %w", err)
	}
	if count == 0 {
		return ErrRecordNotFound
	}
	return nil
}
