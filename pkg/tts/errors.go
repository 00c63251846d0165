package tts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common error conditions.
var (
	ErrNoAPIKey            = errors.New("tts: API key required")
	ErrNoVoiceID           = errors.New("tts: voice ID required")
	ErrEmptyText           = errors.New("tts: empty text")
	ErrProviderUnavailable = errors.New("tts: provider unavailable")
)

// APIError is a non-2xx response from a speech API.
type APIError struct {
	Provider   string
	StatusCode int

	// Code is the provider's machine-readable error code, if any.
	Code    string
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("tts: %s returned %d %s: %s", e.Provider, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("tts: %s returned %d: %s", e.Provider, e.StatusCode, msg)
}

// IsRateLimited reports HTTP 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsUnauthorized reports HTTP 401.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsServerError reports HTTP 5xx.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// ProviderError records which provider operation failed.
type ProviderError struct {
	Provider string
	Op       string // "synthesize" or "health"
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("tts: %s %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError attaches provider and operation to err. nil stays nil.
func WrapError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// IsTransient reports failures that may succeed when asked again later:
// rate limits, server errors and timeouts. Providers never retry on their
// own; callers decide.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRateLimited() || apiErr.IsServerError()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
