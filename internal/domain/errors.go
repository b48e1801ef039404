package domain

import (
	"errors"
	"fmt"
)

// ErrCacheMiss is returned by Cache implementations when a key is absent.
var ErrCacheMiss = errors.New("cache: key not found")

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"

	// Request validation errors
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Generation errors
	CodeGenerationTimeout     ErrorCode = "GENERATION_TIMEOUT"
	CodeGenerationRateLimited ErrorCode = "GENERATION_RATE_LIMITED"
	CodeGenerationMalformed   ErrorCode = "GENERATION_MALFORMED"
	CodeGenerationUnavailable ErrorCode = "GENERATION_UNAVAILABLE"
	CodeStrategyFailed        ErrorCode = "STRATEGY_FAILED"

	// Job errors
	CodeJobNotFound ErrorCode = "JOB_NOT_FOUND"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{Code: code, Message: message, Cause: cause}
}

func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewJobNotFoundError(jobID string) *DomainError {
	return NewError(CodeJobNotFound, fmt.Sprintf("Job not found with ID: %s", jobID), nil)
}

// Generation error constructors. Timeout and RateLimited are retryable by
// the generation client; the rest surface after retries are exhausted.

func NewGenerationTimeoutError(cause error) *DomainError {
	return NewError(CodeGenerationTimeout, "Generation request timed out", cause)
}

func NewGenerationRateLimitedError(cause error) *DomainError {
	return NewError(CodeGenerationRateLimited, "Generation request was rate limited", cause)
}

func NewGenerationMalformedError(cause error) *DomainError {
	return NewError(CodeGenerationMalformed, "Generation response was not valid structured output", cause)
}

func NewGenerationUnavailableError(cause error) *DomainError {
	return NewError(CodeGenerationUnavailable, "Generation service is unavailable", cause)
}

func NewStrategyFailedError(message string, cause error) *DomainError {
	return NewError(CodeStrategyFailed, message, cause)
}

// IsRetryableGenerationError reports whether the generation client should
// retry the call with backoff.
func IsRetryableGenerationError(err error) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	switch domainErr.Code {
	case CodeGenerationTimeout, CodeGenerationRateLimited:
		return true
	}
	return false
}

// ValidationError represents a single field-level request validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e[0].Error())
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}

func NewInvalidFormatError(field, value string) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("has invalid format: %q", value)}
}

func NewOutOfRangeError(field string, value, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("value %d out of range [%d, %d]", value, min, max)}
}
