package core

import (
	"fmt"
	"strings"
)

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`           // Field path ("interestIncome", "payer.zipCode")
	Value   string `json:"value,omitempty"` // The offending value, if one was supplied
	Message string `json:"message"`         // Human-readable error message
}

func (e FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationError lists every field violation found in one submission.
// A record that produces a ValidationError is rejected as a whole.
type ValidationError struct {
	FormType FormType
	Errors   []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	if e.FormType == "" {
		return "validation failed: " + strings.Join(msgs, "; ")
	}
	return fmt.Sprintf("invalid %s form: %s", e.FormType, strings.Join(msgs, "; "))
}

// Fields returns the names of the invalid fields in report order.
func (e *ValidationError) Fields() []string {
	names := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		names[i] = fe.Field
	}
	return names
}

// UnknownFormTypeError is returned for a form-type tag outside the supported set.
type UnknownFormTypeError struct {
	Type string
}

func (e *UnknownFormTypeError) Error() string {
	return fmt.Sprintf("unknown form type: %q", e.Type)
}
