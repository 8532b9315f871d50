package seo

import "fmt"

// GenerationError represents a failed or unusable title generation call
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("title generation failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("title generation failed: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
