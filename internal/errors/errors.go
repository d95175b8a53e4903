// Package errors defines the agent's error taxonomy and provides error
// classification for retry decisions. It distinguishes retryable errors
// (network, rate limit) from permanent ones (auth config, bad request) and
// carries the turn-level failures: tool not found, backend unavailable, and
// all backends unavailable.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType categorizes errors for retry decisions
type ErrorType string

const (
	// ErrorTypeRetryable indicates the error might succeed on retry
	ErrorTypeRetryable ErrorType = "retryable"
	// ErrorTypePermanent indicates the error will not succeed on retry
	ErrorTypePermanent ErrorType = "permanent"
	// ErrorTypePanic indicates a panic was recovered
	ErrorTypePanic ErrorType = "panic"
)

// ErrUnparseableToolCall marks a model reply that requested a tool call the
// client could not parse into a structured call. Unlike a tool failure, this
// fails the turn: there is nothing to execute and nothing to feed back.
var ErrUnparseableToolCall = errors.New("unparseable tool call in model reply")

// ToolNotFoundError is returned when a tool call names a tool that is not
// registered. The turn fails without executing anything.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Tool)
}

// NewToolNotFound creates a ToolNotFoundError for the given tool name.
func NewToolNotFound(tool string) error {
	return &ToolNotFoundError{Tool: tool}
}

// IsToolNotFound reports whether err is (or wraps) a ToolNotFoundError.
func IsToolNotFound(err error) bool {
	var te *ToolNotFoundError
	return errors.As(err, &te)
}

// BackendUnavailableError is returned when one LLM backend cannot serve a
// request: transport failures, auth rejections, rate limits, exhausted quota,
// or server errors. In auto mode the selector falls back to the other backend;
// in explicit mode it surfaces as a hard turn failure.
type BackendUnavailableError struct {
	Provider string
	Err      error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend %s unavailable: %v", e.Provider, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}

// NewBackendUnavailable wraps err as a BackendUnavailableError for provider.
func NewBackendUnavailable(provider string, err error) error {
	return &BackendUnavailableError{Provider: provider, Err: err}
}

// IsBackendUnavailable reports whether err is (or wraps) a
// BackendUnavailableError.
func IsBackendUnavailable(err error) bool {
	var be *BackendUnavailableError
	return errors.As(err, &be)
}

// AllBackendsUnavailableError is terminal for a turn: every candidate backend
// failed with a BackendUnavailableError.
type AllBackendsUnavailableError struct {
	Errs []error
}

func (e *AllBackendsUnavailableError) Error() string {
	if len(e.Errs) == 0 {
		return "all backends unavailable"
	}
	parts := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		parts[i] = err.Error()
	}
	return "all backends unavailable: " + strings.Join(parts, "; ")
}

// Unwrap exposes the per-backend failures to errors.Is/As.
func (e *AllBackendsUnavailableError) Unwrap() []error {
	return e.Errs
}

// IsAllBackendsUnavailable reports whether err is (or wraps) an
// AllBackendsUnavailableError.
func IsAllBackendsUnavailable(err error) bool {
	var ae *AllBackendsUnavailableError
	return errors.As(err, &ae)
}

// RetryableError represents errors that may succeed on retry
// Examples: network timeouts, rate limits, temporary unavailability
type RetryableError struct {
	Err  error
	Kind string
}

func (e *RetryableError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("[retryable:%s] %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("[retryable] %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// PermanentError represents errors that will not succeed on retry
// Examples: invalid request, missing API key, unknown model
type PermanentError struct {
	Err  error
	Kind string
}

func (e *PermanentError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("[permanent:%s] %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("[permanent] %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var re *RetryableError
	if errors.As(err, &re) {
		return true
	}
	return ClassifyError(err) == ErrorTypeRetryable
}

// IsPermanent checks if an error is permanent
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return true
	}
	return ClassifyError(err) == ErrorTypePermanent
}

// ClassifyError determines the error type based on error message patterns.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent // Default for nil
	}

	msg := strings.ToLower(err.Error())

	// Retryable error patterns
	retryablePatterns := []string{
		// Network errors
		"connection refused",
		"connection reset",
		"no such host",
		"timeout",
		"deadline exceeded",
		"temporary failure",
		"network is unreachable",
		"connection timed out",
		// Rate limiting and quota (the common auto-switch triggers)
		"rate limit",
		"too many requests",
		"quota",
		"insufficient balance",
		"429",
		"503",
		"service unavailable",
		"temporarily unavailable",
		// API errors
		"internal server error",
		"502",
		"504",
		"gateway timeout",
		"overloaded",
		// Resource exhaustion (might recover)
		"resource temporarily unavailable",
		"try again",
		"busy",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return ErrorTypeRetryable
		}
	}

	// Permanent error patterns
	permanentPatterns := []string{
		// Invalid input
		"invalid argument",
		"bad request",
		"invalid syntax",
		"parse error",
		"unrecognized",
		"unknown",
		// Not found
		"not found",
		"404",
		// Authentication (won't fix with retry)
		"unauthorized",
		"forbidden",
		"invalid api key",
		"401",
		"403",
		// Logic errors
		"panic:",
		"runtime error",
		"index out of range",
		"nil pointer",
	}

	for _, pattern := range permanentPatterns {
		if strings.Contains(msg, pattern) {
			return ErrorTypePermanent
		}
	}

	// Default: assume retryable for unknown errors
	// This is safer than failing permanently on unknown errors
	return ErrorTypeRetryable
}

// NewRetryableError wraps an error as retryable
func NewRetryableError(err error, kind string) error {
	return &RetryableError{Err: err, Kind: kind}
}

// NewPermanentError wraps an error as permanent
func NewPermanentError(err error, kind string) error {
	return &PermanentError{Err: err, Kind: kind}
}

// RecoveryResult holds the result of a recovered panic
type RecoveryResult struct {
	Recovered  bool
	PanicValue interface{}
	ErrorMsg   string
	ErrorType  ErrorType
}

// RecoverPanic recovers from a panic and returns a RecoveryResult.
// Use with defer:
//
//	defer func() {
//	    if r := errors.RecoverPanic(recover()); r.Recovered {
//	        // Handle recovered panic
//	    }
//	}()
func RecoverPanic(r interface{}) RecoveryResult {
	if r == nil {
		return RecoveryResult{Recovered: false}
	}

	result := RecoveryResult{
		Recovered:  true,
		PanicValue: r,
		ErrorType:  ErrorTypePanic,
	}

	switch v := r.(type) {
	case error:
		result.ErrorMsg = fmt.Sprintf("panic: %v", v)
	case string:
		result.ErrorMsg = fmt.Sprintf("panic: %s", v)
	default:
		result.ErrorMsg = fmt.Sprintf("panic: %+v", v)
	}

	return result
}

// CalculateBackoff calculates exponential backoff delay
// baseDelay: initial delay
// retryCount: current retry attempt (0-indexed)
// maxDelay: maximum delay cap
func CalculateBackoff(baseDelay time.Duration, retryCount int, maxDelay time.Duration) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}

	// Calculate: baseDelay * (2 ^ retryCount)
	delay := baseDelay * (1 << retryCount)

	if maxDelay > 0 && delay > maxDelay {
		return maxDelay
	}

	return delay
}

// CalculateBackoffWithJitter adds jitter to prevent thundering herd
func CalculateBackoffWithJitter(baseDelay time.Duration, retryCount int, maxDelay time.Duration, jitterPercent float64) time.Duration {
	delay := CalculateBackoff(baseDelay, retryCount, maxDelay)

	if jitterPercent <= 0 {
		return delay
	}

	jitter := time.Duration(float64(delay) * jitterPercent)
	if jitter > 0 {
		delay -= jitter / 2 // Reduce by up to half of jitter range
	}

	return delay
}

// GetErrorType returns the ErrorType for any error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var re *RetryableError
	if errors.As(err, &re) {
		return ErrorTypeRetryable
	}

	var pe *PermanentError
	if errors.As(err, &pe) {
		return ErrorTypePermanent
	}

	return ClassifyError(err)
}
