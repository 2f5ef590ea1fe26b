package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/benvon/todolist/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("bulk_action", validateBulkAction); err != nil {
		panic(fmt.Sprintf("failed to register bulk_action validator: %v", err))
	}

	// Report fields by their JSON names
	Validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateBulkAction validates that a string names a supported bulk action
func validateBulkAction(fl validator.FieldLevel) bool {
	return ValidateBulkAction(fl.Field().String()) == nil
}

// ValidateBulkAction validates a bulk action name
func ValidateBulkAction(value string) error {
	switch models.BulkActionType(value) {
	case models.BulkComplete, models.BulkDelete, models.BulkSetPriority:
		return nil
	default:
		return fmt.Errorf("invalid action: %s (must be 'complete', 'delete', or 'set_priority')", value)
	}
}

// FormatValidationError turns validator errors into a single client-facing message.
// Other errors are returned unchanged.
func FormatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return strings.Join(msgs, "; ")
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required for this action", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "bulk_action":
		return ValidateBulkAction(fmt.Sprint(fe.Value())).Error()
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
