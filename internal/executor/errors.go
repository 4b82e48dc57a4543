package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the distinguished fatal run outcomes.
var (
	// ErrAborted is returned when the caller cancels a run via Abort or
	// an already-cancelled context.
	ErrAborted = errors.New("execution aborted")
	// ErrNoResponse is returned when the chat client produces no
	// assistant message.
	ErrNoResponse = errors.New("no response from model")
	// ErrAlreadyExecuting is returned when Execute is called while a run
	// is active on the same instance.
	ErrAlreadyExecuting = errors.New("a run is already in progress")
)

// IsAborted reports whether err represents a cancelled run, whether
// through Abort, a cancelled context, or a retry that gave up on
// cancellation.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled)
}

// RetryClass indicates whether a chat-client error should be retried.
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"
	RetryClassMaybe        RetryClass = "maybe" // retry with a tight cap
	RetryClassNonRetryable RetryClass = "non_retryable"
)

// ClassifyChatError classifies an error from a chat-client call for the
// retry policy. Rate limits, server errors, and transient network
// failures are retryable; auth, bad-request, and quota errors are not.
func ClassifyChatError(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}
	s := strings.ToLower(err.Error())

	switch {
	case strings.Contains(s, "429"),
		strings.Contains(s, "rate limit"),
		strings.Contains(s, "too many requests"):
		return RetryClassRetryable
	case strings.Contains(s, "500"),
		strings.Contains(s, "502"),
		strings.Contains(s, "503"),
		strings.Contains(s, "504"),
		strings.Contains(s, "internal server error"),
		strings.Contains(s, "bad gateway"),
		strings.Contains(s, "service unavailable"),
		strings.Contains(s, "gateway timeout"):
		return RetryClassRetryable
	case strings.Contains(s, "connection reset"),
		strings.Contains(s, "connection refused"),
		strings.Contains(s, "no such host"),
		strings.Contains(s, "temporary failure"):
		return RetryClassRetryable
	case strings.Contains(s, "deadline exceeded"),
		strings.Contains(s, "timeout"):
		return RetryClassMaybe
	case strings.Contains(s, "context length"),
		strings.Contains(s, "maximum context"),
		strings.Contains(s, "token limit"):
		return RetryClassMaybe
	}
	return RetryClassNonRetryable
}

// RetryExhaustedError indicates that all retry attempts for a chat call
// were used without success.
type RetryExhaustedError struct {
	Err      error
	Attempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// IsRetryExhausted reports whether err is a RetryExhaustedError.
func IsRetryExhausted(err error) bool {
	var re *RetryExhaustedError
	return errors.As(err, &re)
}

// ToolValidationError indicates that tool arguments failed JSON schema
// validation.
type ToolValidationError struct {
	ToolName string
	Errors   []string
}

func (e *ToolValidationError) Error() string {
	return fmt.Sprintf("tool %s validation failed: %s", e.ToolName, strings.Join(e.Errors, "; "))
}
