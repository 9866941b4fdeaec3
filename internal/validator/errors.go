package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation lists the fields that failed validation.
type ErrValidation struct {
	error
	Fields []string
}

func newErrValidation(fieldErrs validator.ValidationErrors) *ErrValidation {
	fields := make([]string, 0, len(fieldErrs))
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
		msgs = append(msgs, fmt.Sprintf("%s failed on the %q rule (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return &ErrValidation{
		error:  errors.New(strings.Join(msgs, "; ")),
		Fields: fields,
	}
}
