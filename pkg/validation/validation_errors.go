package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

func formatSingleError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", field)
	case "no_blank":
		return fmt.Sprintf("%s: must not be blank", field)
	case "oneof":
		options := strings.Fields(e.Param())
		for i, o := range options {
			if o == "''" {
				options = append(options[:i], options[i+1:]...)
				break
			}
		}
		return fmt.Sprintf("%s: must be one of %s", field, strings.Join(options, ", "))
	case "email":
		return fmt.Sprintf("%s: is not a valid email", field)
	case "min":
		return fmt.Sprintf("%s: must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s: failed %s validation", field, e.Tag())
	}
}
