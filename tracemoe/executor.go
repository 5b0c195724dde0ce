package tracemoe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// HeaderRateLimitReset carries the UNIX time (seconds) at which the rate limit resets.
const HeaderRateLimitReset = "x-ratelimit-reset"

// maxErrorBodyLen bounds how much of an unexpected body ends up in error messages.
const maxErrorBodyLen = 256

// retryPolicy decides whether a rate-limited request is re-issued.
type retryPolicy struct {
	enabled bool
	// maxRetries caps the number of retries; 0 means no cap.
	maxRetries int
}

func (p retryPolicy) allows(retries int) bool {
	if !p.enabled {
		return false
	}
	return p.maxRetries == 0 || retries < p.maxRetries
}

// rawResponse is a successful HTTP exchange.
type rawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// requestFactory builds a fresh request for every attempt so bodies can be replayed.
type requestFactory func(ctx context.Context) (*http.Request, error)

// executor performs API calls and applies the rate-limit retry policy. It holds no
// per-call state and is safe for concurrent use.
type executor struct {
	httpClient *http.Client
	policy     retryPolicy
	logger     zerolog.Logger
	now        func() time.Time
}

// execute runs the request, retrying on HTTP 429 while the policy allows it.
func (e *executor) execute(ctx context.Context, newRequest requestFactory) (*rawResponse, error) {
	for retries := 0; ; retries++ {
		req, err := newRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		e.logger.Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("retry", retries).
			Msg("Making trace.moe API request")

		resp, err := e.do(req)
		if err == nil {
			return resp, nil
		}

		var rateLimited *RateLimitError
		if !errors.As(err, &rateLimited) || !e.policy.allows(retries) {
			return nil, err
		}

		delay := max(rateLimited.ResetAt.Sub(e.now()), 0)
		e.logger.Warn().
			Dur("delay", delay).
			Int("retry", retries+1).
			Msg("Rate limited by trace.moe, waiting for reset")

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// do sends one request and classifies a non-2xx answer.
func (e *executor) do(req *http.Request) (*rawResponse, error) {
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyFailure(resp.StatusCode, resp.Header, body)
	}

	return &rawResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// classifyFailure maps a failing response onto APIError, RateLimitError or TransportError.
func classifyFailure(statusCode int, header http.Header, body []byte) error {
	var envelope wireErrorEnvelope
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
		return &APIError{StatusCode: statusCode, Message: envelope.Error}
	}

	if statusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			StatusCode: statusCode,
			ResetAt:    parseRateLimitReset(header.Get(HeaderRateLimitReset)),
		}
	}

	return &TransportError{
		StatusCode: statusCode,
		Message:    unexpectedStatusMessage(statusCode, body),
	}
}

func unexpectedStatusMessage(statusCode int, body []byte) string {
	msg := fmt.Sprintf("unexpected status %s", http.StatusText(statusCode))
	text := strings.TrimSpace(string(body))
	if text == "" {
		return msg
	}
	if len(text) > maxErrorBodyLen {
		text = text[:maxErrorBodyLen] + "..."
	}
	return msg + ": " + text
}

// parseRateLimitReset reads a UNIX timestamp in seconds, fractions allowed.
// It returns the zero time for a missing or invalid value.
func parseRateLimitReset(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds <= 0 || math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return time.Time{}
	}
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
