package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

// NewJobValidationRules returns the rules of job.Params. maxDigits bounds
// the max_digits tag.
func NewJobValidationRules(maxDigits int) []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("max_digits", maxDigitsValidator(maxDigits)),
		},
	}
}
