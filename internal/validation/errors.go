package validation

import (
	"fmt"

	"github.com/bcnelson/apikey-console/internal/domain"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`

	// Err optionally names a more specific cause, such as domain.ErrDuplicateKey.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match any validation failure with domain.ErrInvalidInput.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrInvalidInput, e.Err}
	}
	return []error{domain.ErrInvalidInput}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e[0].Error(), len(e)-1)
}

func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(e)+1)
	errs = append(errs, domain.ErrInvalidInput)
	for _, ve := range e {
		errs = append(errs, ve)
	}
	return errs
}

// Add adds a validation error to the collection.
func (e *ValidationErrors) Add(field, value, message string) {
	*e = append(*e, NewValidationError(field, value, message))
}

// AddErr adds a validation error caused by err; the message is err's text.
func (e *ValidationErrors) AddErr(field, value string, err error) {
	ve := NewValidationError(field, value, err.Error())
	ve.Err = err
	*e = append(*e, ve)
}

// Check records err against field when it is non-nil.
func (e *ValidationErrors) Check(field, value string, err error) {
	if err != nil {
		e.Add(field, value, err.Error())
	}
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Err returns the collection as an error, or nil when it is empty.
func (e ValidationErrors) Err() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}
