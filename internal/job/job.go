package job

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrCancelled is returned by a computation that stopped because its
// cancellation was requested.
var ErrCancelled = errors.New("job cancelled")

// ID identifies one submitted job. It is allocated by the dispatcher and never
// reused.
type ID = uuid.UUID

func NewID() ID {
	return uuid.New()
}

func ParseID(s string) (ID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid job id %q: %w", s, err)
	}
	return id, nil
}

// Params are the validated inputs of a pi computation.
type Params struct {
	// Digits is the number of decimal places of the result.
	Digits int `json:"digits" validate:"min=0,max_digits"`
}

// Task is the unit handed from the dispatcher to a worker.
type Task struct {
	ID     ID     `json:"job_id"`
	Params Params `json:"params"`
}
