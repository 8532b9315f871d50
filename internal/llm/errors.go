package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned when a provider client is created without credentials.
	ErrMissingAPIKey = errors.New("API key is required")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("no text in model response")
)

// ProviderError is returned for an unsupported provider.
type ProviderError struct {
	Provider Provider
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("unsupported LLM provider %q", e.Provider)
}
