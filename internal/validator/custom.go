package validator

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

func maxDigitsValidator(maxDigits int) func(fl validator.FieldLevel) bool {
	return func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return fl.Field().Int() <= int64(maxDigits)
		default:
			return false
		}
	}
}
