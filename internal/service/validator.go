package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"dsas/internal/errors"
)

var dataTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,49}$`)

// maxDocumentKeys bounds the top-level size of an uploaded document.
const maxDocumentKeys = 500

// InputValidator checks service inputs with struct tags so that callers other
// than the HTTP layer (the seed CLI, tests) get the same rules.
type InputValidator struct {
	validate *validator.Validate
}

// NewInputValidator creates a validator with the custom rules registered.
func NewInputValidator() *InputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("datatype", func(fl validator.FieldLevel) bool {
		return dataTypePattern.MatchString(fl.Field().String())
	})
	return &InputValidator{validate: v}
}

// Struct validates s and converts failures into a validation error naming the
// first offending field.
func (v *InputValidator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.WithMessage(errors.ErrInvalidInput, describe(fe))
	}
	return errors.Wrap(errors.ErrInvalidInput, err)
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "datatype":
		return fmt.Sprintf("%s must be lower_snake_case", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// normalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
