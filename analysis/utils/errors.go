package utils

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// Transport and node errors
	ErrorTypeTransport ErrorType = "transport"
	ErrorTypeTimeout   ErrorType = "timeout"
	ErrorTypeNotFound  ErrorType = "not_found"

	// Configuration and setup errors
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeValidation ErrorType = "validation"

	// Data processing errors
	ErrorTypeDecoding ErrorType = "decoding"
	ErrorTypeParsing  ErrorType = "parsing"

	// Business logic errors
	ErrorTypeAnalysis ErrorType = "analysis"
	ErrorTypeStorage  ErrorType = "storage"
)

// AnalysisError represents an enhanced error with context information
type AnalysisError struct {
	Type        ErrorType
	Message     string
	OriginalErr error
	Context     map[string]interface{}
	Timestamp   time.Time
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *AnalysisError) Unwrap() error {
	return e.OriginalErr
}

// Is implements error checking by error type
func (e *AnalysisError) Is(target error) bool {
	var targetErr *AnalysisError
	if errors.As(target, &targetErr) {
		return e.Type == targetErr.Type
	}
	return false
}

// AddContext adds contextual information to the error
func (e *AnalysisError) AddContext(key string, value interface{}) *AnalysisError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new AnalysisError
func NewError(errType ErrorType, message string) *AnalysisError {
	return &AnalysisError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with AnalysisError
func WrapError(errType ErrorType, message string, originalErr error) *AnalysisError {
	return &AnalysisError{
		Type:        errType,
		Message:     message,
		OriginalErr: originalErr,
		Timestamp:   time.Now(),
		Context:     make(map[string]interface{}),
	}
}

// NewTransportError creates a node transport error
func NewTransportError(message string, originalErr error) *AnalysisError {
	return WrapError(ErrorTypeTransport, message, originalErr).
		AddContext("recoverable", true)
}

// NewValidationError creates an input validation error
func NewValidationError(message string, field string) *AnalysisError {
	return NewError(ErrorTypeValidation, message).
		AddContext("field", field).
		AddContext("recoverable", false)
}

// NewNotFoundError creates an error for a missing trace or transaction
func NewNotFoundError(message string, txHash string) *AnalysisError {
	return NewError(ErrorTypeNotFound, message).
		AddContext("tx_hash", txHash).
		AddContext("recoverable", false)
}

// NewDecodingError creates a data decoding error
func NewDecodingError(message string, originalErr error) *AnalysisError {
	return WrapError(ErrorTypeDecoding, message, originalErr).
		AddContext("recoverable", false)
}

// ErrorRecovery provides retry logic around the transport boundary.
// Analysis stages themselves are never retried.
type ErrorRecovery struct {
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RetryableTypes map[ErrorType]bool
}

// NewErrorRecovery creates a new error recovery handler
func NewErrorRecovery() *ErrorRecovery {
	return &ErrorRecovery{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		RetryableTypes: map[ErrorType]bool{
			ErrorTypeTransport: true,
			ErrorTypeTimeout:   true,
		},
	}
}

// ShouldRetry determines if an error should be retried
func (r *ErrorRecovery) ShouldRetry(err error, attempt int) bool {
	if attempt >= r.MaxRetries {
		return false
	}

	var aErr *AnalysisError
	if errors.As(err, &aErr) {
		if retryable, exists := r.RetryableTypes[aErr.Type]; exists && retryable {
			return true
		}
		if recoverable, exists := aErr.Context["recoverable"].(bool); exists && recoverable {
			return true
		}
	}

	return false
}

// GetRetryDelay calculates the delay before the next retry
func (r *ErrorRecovery) GetRetryDelay(attempt int) time.Duration {
	delay := r.BaseDelay * time.Duration(1<<uint(attempt))
	if delay > r.MaxDelay {
		delay = r.MaxDelay
	}
	return delay
}

// RetryWithRecovery executes a function with retry logic
func (r *ErrorRecovery) RetryWithRecovery(operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(r.GetRetryDelay(attempt - 1))
		}

		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err
		if !r.ShouldRetry(err, attempt) {
			break
		}
	}

	return lastErr
}
