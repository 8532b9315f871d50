package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrNotFound is returned for posts that do not exist or belong to another owner.
var ErrNotFound = errors.New("post not found")

// FieldError is one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError represents malformed input, rejected before a pipeline starts.
type ValidationError struct {
	Message string
	Fields  []FieldError
	Cause   error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("invalid request: %s", e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Rule+")")
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Message, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError converts validator errors into a ValidationError.
func NewValidationError(err error) *ValidationError {
	ve := &ValidationError{Message: "request failed validation", Cause: err}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			ve.Fields = append(ve.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
	}
	return ve
}

// UpstreamGenerationError represents a failed or timed-out external generation call.
type UpstreamGenerationError struct {
	Call  string
	Cause error
}

func (e *UpstreamGenerationError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Call, e.Cause)
}

func (e *UpstreamGenerationError) Unwrap() error {
	return e.Cause
}

// PersistenceError represents a failed store operation.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Error is the aggregate failure of a pipeline run. Stage is the last stage that
// finished before the failure.
type Error struct {
	TaskID string
	Stage  Stage
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline failed after stage %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
