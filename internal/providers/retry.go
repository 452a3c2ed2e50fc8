package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// retryBaseDelay is the first back-off interval; it doubles per attempt.
var retryBaseDelay = time.Second

type rateLimitError struct {
	body string
}

func (e *rateLimitError) Error() string { return "rate limited" }

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string { return "server error: " + e.body }

// statusError is any other non-2xx response.
type statusError struct {
	statusCode int
	body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.statusCode, e.body)
}

type networkError struct {
	err error
}

func (e *networkError) Error() string { return "network error: " + e.err.Error() }
func (e *networkError) Unwrap() error { return e.err }

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

// IsRateLimit checks if an error is a rate-limit response.
func IsRateLimit(err error) bool {
	var re *rateLimitError
	return errors.As(err, &re)
}

// IsNetworkError checks if the engine could not be reached.
func IsNetworkError(err error) bool {
	var ne *networkError
	return errors.As(err, &ne)
}

// NetworkCause returns the transport error behind a network failure, or
// nil when err is not one.
func NetworkCause(err error) error {
	var ne *networkError
	if errors.As(err, &ne) {
		return ne.err
	}
	return nil
}

// StatusCode extracts the HTTP status of a failed call.
func StatusCode(err error) (int, bool) {
	var se *serverError
	if errors.As(err, &se) {
		return se.statusCode, true
	}
	var st *statusError
	if errors.As(err, &st) {
		return st.statusCode, true
	}
	return 0, false
}

// ErrorBody returns the response body carried by a status or
// authentication error.
func ErrorBody(err error) string {
	var ae *authError
	if errors.As(err, &ae) {
		return ae.message
	}
	var se *serverError
	if errors.As(err, &se) {
		return se.body
	}
	var st *statusError
	if errors.As(err, &st) {
		return st.body
	}
	return ""
}

func isRetryable(err error) bool {
	var re *rateLimitError
	var se *serverError
	return errors.As(err, &re) || errors.As(err, &se)
}

func retryWithBackoff(ctx context.Context, maxRetries int, log *slog.Logger, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := retryBaseDelay << uint(attempt)
			if log != nil {
				log.Debug("retrying engine call", "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
