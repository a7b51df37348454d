package agent

import (
	"errors"
	"fmt"
)

// Common sentinel errors for gateway operations.
var (
	// ErrNoProvider indicates no LLM provider is configured.
	ErrNoProvider = errors.New("no provider configured")

	// ErrEmptyResponse indicates the model returned no content at all.
	ErrEmptyResponse = errors.New("model returned empty response")
)

// LLMCallError wraps transport, timeout, and model errors from the provider.
// Every model failure surfaces through this single kind; the orchestration
// layer treats it as fatal to the run (retries belong inside providers).
type LLMCallError struct {
	// Provider is the provider name.
	Provider string

	// Model is the requested model, if known.
	Model string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *LLMCallError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("llm call failed (%s/%s): %v", e.Provider, e.Model, e.Cause)
	}
	return fmt.Sprintf("llm call failed (%s): %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error.
func (e *LLMCallError) Unwrap() error {
	return e.Cause
}

// IsLLMCallError checks if an error is or wraps an LLMCallError.
func IsLLMCallError(err error) bool {
	var callErr *LLMCallError
	return errors.As(err, &callErr)
}
