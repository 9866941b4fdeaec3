package store

import (
	"context"
	"io"

	"github.com/picalc/pi-calculator/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	JobStatus() JobStatus
	RiverJob() RiverJob
	InitialMigration(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db        *gorm.DB
	jobStatus JobStatus
	riverJob  RiverJob
}

type StoreOption func(*DataStore)

// WithJobStatus replaces the database backed progress channel.
func WithJobStatus(status JobStatus) StoreOption {
	return func(s *DataStore) {
		s.jobStatus = status
	}
}

func NewStore(db *gorm.DB, opts ...StoreOption) Store {
	s := &DataStore{
		db:        db,
		jobStatus: NewJobStatusStore(db),
		riverJob:  NewRiverJobStore(db),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DataStore) JobStatus() JobStatus {
	return s.jobStatus
}

func (s *DataStore) RiverJob() RiverJob {
	return s.riverJob
}

// InitialMigration creates the schema from the models, without goose.
func (s *DataStore) InitialMigration(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&model.JobStatus{})
}

func (s *DataStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *DataStore) Close() error {
	if closer, ok := s.jobStatus.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
