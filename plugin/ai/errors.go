package ai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// ErrorCode represents a specific error type for generative completions.
type ErrorCode string

const (
	// ErrCodeRateLimited indicates the provider returned a quota or rate-limit signal.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeUpstreamUnavailable indicates retries were exhausted or the provider failed.
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	// ErrCodeRejected indicates the provider permanently rejected the request.
	ErrCodeRejected ErrorCode = "REJECTED"
	// ErrCodeUnauthorized indicates the credential was refused.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeCircuitOpen indicates the client is failing fast after repeated failures.
	ErrCodeCircuitOpen ErrorCode = "CIRCUIT_OPEN"
	// ErrCodeEmptyResponse indicates the provider answered without content.
	ErrCodeEmptyResponse ErrorCode = "EMPTY_RESPONSE"
	// ErrCodeDisabled indicates no credential is configured.
	ErrCodeDisabled ErrorCode = "LLM_DISABLED"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// AIError represents a structured error for generative completions.
type AIError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AIError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AIError) WithContext(key string, value any) *AIError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Wrap wraps an existing error with a code.
func Wrap(cause error, code ErrorCode, msg string) *AIError {
	return &AIError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error, or anything it wraps, carries code.
func IsCode(err error, code ErrorCode) bool {
	var aiErr *AIError
	return asAIError(err, &aiErr) && aiErr.Code == code
}

func asAIError(err error, target **AIError) bool {
	return errors.As(err, target)
}

// GetCodeFromError extracts the error code from any error.
// Returns defaultCode if the error is not an AIError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var aiErr *AIError
	if asAIError(err, &aiErr) {
		return aiErr.Code
	}
	return defaultCode
}

// ErrorClass tells the retry loop what to do with a failed attempt.
type ErrorClass int

const (
	// ErrorClassFatal fails the completion immediately.
	ErrorClassFatal ErrorClass = iota
	// ErrorClassRetryable is retried with backoff.
	ErrorClassRetryable
)

// StatusCode extracts the HTTP status of a provider error, 0 when there is none.
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// ClassifyError decides whether err is worth retrying. Only quota and
// rate-limit signals are; everything else fails fast.
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassFatal
	}
	if StatusCode(err) == http.StatusTooManyRequests {
		return ErrorClassRetryable
	}
	return ErrorClassFatal
}

// codeFor maps a fatal attempt error onto the taxonomy.
func codeFor(err error) ErrorCode {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrCodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	}
	switch status := StatusCode(err); {
	case status == http.StatusTooManyRequests:
		return ErrCodeRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrCodeUnauthorized
	case status >= 400 && status < 500:
		return ErrCodeRejected
	default:
		return ErrCodeUpstreamUnavailable
	}
}
