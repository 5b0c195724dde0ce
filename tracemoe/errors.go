package tracemoe

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client or download configuration
	ErrInvalidConfig = errors.New("invalid trace.moe configuration")
	// ErrRateLimited indicates trace.moe answered with HTTP 429
	ErrRateLimited = errors.New("rate limited by trace.moe")
	// ErrMalformedResponse indicates a successful response that violates the API contract
	ErrMalformedResponse = errors.New("malformed response from trace.moe")
)

// APIError is returned when trace.moe rejects a request with an error message.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("trace.moe API error: status %d: %s", e.StatusCode, e.Message)
}

// IsConcurrencyLimit reports whether the search queue or concurrency limit was hit.
func (e *APIError) IsConcurrencyLimit() bool {
	return e.StatusCode == http.StatusPaymentRequired
}

// IsUnauthorized checks if the error indicates an invalid API key
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// RateLimitError is returned for HTTP 429 responses that were not retried.
type RateLimitError struct {
	StatusCode int
	// ResetAt is taken from the x-ratelimit-reset header; zero when the header was missing.
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return fmt.Sprintf("rate limited by trace.moe: status %d", e.StatusCode)
	}
	return fmt.Sprintf("rate limited by trace.moe: status %d, resets at %s", e.StatusCode, e.ResetAt.Format(time.RFC3339))
}

// Is makes errors.Is(err, ErrRateLimited) match.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// TransportError covers network failures, unexpected HTTP statuses and unreadable bodies.
// StatusCode is 0 when no response was received.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("trace.moe transport error: %s", e.Message)
	}
	return fmt.Sprintf("trace.moe transport error: status %d: %s", e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
