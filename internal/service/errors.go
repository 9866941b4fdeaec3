package service

import (
	"fmt"

	"github.com/picalc/pi-calculator/internal/job"
)

type ErrInvalidParameters struct {
	error
}

func NewErrInvalidParameters(format string, args ...any) *ErrInvalidParameters {
	return &ErrInvalidParameters{fmt.Errorf(format, args...)}
}

type ErrJobNotFound struct {
	error
}

func NewErrJobNotFound(id job.ID) *ErrJobNotFound {
	return &ErrJobNotFound{fmt.Errorf("job %s not found", id)}
}

type ErrJobAlreadyCompleted struct {
	error
}

func NewErrJobAlreadyCompleted(id job.ID, state job.State) *ErrJobAlreadyCompleted {
	return &ErrJobAlreadyCompleted{fmt.Errorf("job %s is already %s", id, state)}
}

// ErrInfrastructure reports a store or queue failure. The operation may be
// retried.
type ErrInfrastructure struct {
	error
}

func NewErrInfrastructure(op string, cause error) *ErrInfrastructure {
	return &ErrInfrastructure{fmt.Errorf("%s: %w", op, cause)}
}

func (e *ErrInfrastructure) Unwrap() error {
	return e.error
}
