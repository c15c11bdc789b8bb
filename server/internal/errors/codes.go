package errors

import (
	"fmt"
)

// ErrorCode represents a specific error type for engine operations.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a record required by the operation does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeStorageConflict indicates a concurrent write collision on a single key.
	// The caller should retry the operation.
	ErrCodeStorageConflict ErrorCode = "STORAGE_CONFLICT"
	// ErrCodeCriteriaEvaluation indicates a malformed achievement criteria definition.
	ErrCodeCriteriaEvaluation ErrorCode = "CRITERIA_EVALUATION"
	// ErrCodeRateLimitExceeded indicates the per-user rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeUnavailable indicates the storage layer is not available.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
)

// EngineError represents a structured error for engine operations.
type EngineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *EngineError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(msg string) *EngineError {
	return &EngineError{Code: ErrCodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(format string, args ...any) *EngineError {
	return &EngineError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *EngineError {
	return &EngineError{Code: ErrCodeInvalidArgument, Message: msg}
}

// StorageConflict creates a storage conflict error.
func StorageConflict(msg string, cause error) *EngineError {
	return &EngineError{Code: ErrCodeStorageConflict, Message: msg, Cause: cause}
}

// CriteriaEvaluation creates a criteria evaluation error.
func CriteriaEvaluation(msg string) *EngineError {
	return &EngineError{Code: ErrCodeCriteriaEvaluation, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *EngineError {
	return &EngineError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// Unavailable creates an unavailable error.
func Unavailable(msg string, cause error) *EngineError {
	return &EngineError{Code: ErrCodeUnavailable, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if engineErr, ok := err.(*EngineError); ok {
		return engineErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an EngineError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if engineErr, ok := err.(*EngineError); ok {
		return engineErr.Code
	}
	return defaultCode
}
