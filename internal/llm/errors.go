package llm

import (
	"errors"
	"fmt"
)

// ProviderError is an HTTP-status-class failure from a provider gateway.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider http %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// Retryable reports whether the failure class is worth another attempt:
// rate limiting and server errors are, malformed requests are not.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsUnavailable classifies the retryable failure class of the taxonomy:
// network errors and retryable status codes.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	// transport-level failures carry no status at all
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
