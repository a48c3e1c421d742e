package common

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidationError represents one failed rule.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Validator collects rule failures for request input.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field runs rules against value and collects errors.
func (v *Validator) Field(fieldName string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}

func (v *Validator) ErrorMessage() string {
	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Err returns nil or an AppError wrapping ErrValidation.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError(CodeValidation, v.ErrorMessage(), ErrValidation)
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value any) *ValidationError

func Required(fieldName string, value any) *ValidationError {
	s, ok := asString(value)
	if value == nil || (ok && strings.TrimSpace(s) == "") {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}
	return nil
}

func MaxLength(max int) ValidationRule {
	return func(fieldName string, value any) *ValidationError {
		s, ok := asString(value)
		if ok && utf8.RuneCountInString(s) > max {
			return &ValidationError{Field: fieldName, Value: value, Message: fmt.Sprintf("must be at most %d characters", max)}
		}
		return nil
	}
}

func UUID(fieldName string, value any) *ValidationError {
	s, ok := asString(value)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if _, err := uuid.Parse(s); err != nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a valid UUID"}
	}
	return nil
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", true
		}
		return *v, true
	}
	return "", false
}
