package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return "validation errors: " + strings.Join(msgs, "; ")
}

// HasErrors returns true if there are validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator accumulates field errors
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// Errors returns all validation errors
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Err returns the accumulated errors, or nil when there are none
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return v.errors
}

// Required validates that a string is not blank
func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
}

// MaxLength validates maximum length in characters
func (v *Validator) MaxLength(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		v.AddError(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// NonEmpty validates that a list has at least one non-blank entry and no
// blank entries
func (v *Validator) NonEmpty(field string, values []string) {
	if len(values) == 0 {
		v.AddError(field, "must contain at least one value")
		return
	}
	for i, s := range values {
		if strings.TrimSpace(s) == "" {
			v.AddError(fmt.Sprintf("%s[%d]", field, i), "must not be blank")
		}
	}
}

// MaxItems validates the maximum number of list entries
func (v *Validator) MaxItems(field string, values []string, max int) {
	if len(values) > max {
		v.AddError(field, fmt.Sprintf("must contain at most %d values", max))
	}
}

// SanitizeInput strips null bytes and surrounding whitespace
func SanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}
