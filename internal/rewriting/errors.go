package rewriting

import "fmt"

// APICallError represents an error calling the LLM
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rewrite call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("rewrite call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// ParseError represents a model response that could not be turned into a post body
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse rewrite response: %s", e.Message)
}
