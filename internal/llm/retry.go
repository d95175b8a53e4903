package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	agerrors "github.com/HexSleeves/parasol/internal/errors"
)

// IsRetryableError checks if an LLM API error is worth retrying against the
// same backend. It covers common transient failures: network errors, rate
// limits, exhausted quota, server errors, and provider-specific overload
// conditions. Auth and bad-request errors are not retryable; those either
// fail the turn or trigger a backend switch at a higher level.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Standard io errors
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := strings.ToLower(err.Error())

	retryablePatterns := []string{
		"connection reset",
		"connection refused",
		"i/o timeout",
		"no such host",
		"overloaded_error",
		"server_error",
		"rate limit",
		"quota",
		"insufficient balance",
	}
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	// HTTP status codes that are retryable
	retryableCodes := []int{429, 500, 502, 503, 529}
	for _, code := range retryableCodes {
		// Match patterns like "status 429", "status: 429", "429 too many", "http 503"
		codeStr := fmt.Sprintf("%d", code)
		if strings.Contains(msg, codeStr) {
			return true
		}
	}

	return false
}

// RetryCall retries an LLM call with exponential backoff.
// maxRetries is the number of retry attempts (not counting the initial call).
// Backoff schedule: 1s, 2s, 4s, with a small jitter.
// Only retries if IsRetryableError returns true for the error.
func RetryCall[T any](ctx context.Context, maxRetries int, logger *log.Logger, fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil {
		return result, nil
	}

	var zero T
	for attempt := 0; attempt < maxRetries; attempt++ {
		if !IsRetryableError(err) {
			return zero, err
		}

		// Check context before sleeping
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		backoff := agerrors.CalculateBackoffWithJitter(time.Second, attempt, 30*time.Second, 0.1)
		if logger != nil {
			logger.Printf("⚠ LLM call failed: %v, retrying in %v (attempt %d/%d)", err, backoff, attempt+1, maxRetries)
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return zero, ctx.Err()
		}

		result, err = fn()
		if err == nil {
			return result, nil
		}
	}

	return zero, err
}
