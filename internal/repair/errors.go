package repair

import "fmt"

// ApplyError is returned when a change list cannot be replayed onto a text
// (out of range, overlapping, unordered, or not matching the original).
type ApplyError struct {
	Message string
	Index   int
	Cause   error
}

func (e *ApplyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("repair apply error: change %d: %s: %v", e.Index, e.Message, e.Cause)
	}
	return fmt.Sprintf("repair apply error: change %d: %s", e.Index, e.Message)
}

func (e *ApplyError) Unwrap() error {
	return e.Cause
}
