package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisErrorFormatting(t *testing.T) {
	bare := NewError(ErrorTypeAnalysis, "stage failed")
	assert.Equal(t, "[analysis] stage failed", bare.Error())

	wrapped := WrapError(ErrorTypeTransport, "fetch failed", errors.New("dial timeout"))
	assert.Equal(t, "[transport] fetch failed: dial timeout", wrapped.Error())
}

func TestAnalysisErrorUnwrap(t *testing.T) {
	inner := errors.New("dial timeout")
	wrapped := WrapError(ErrorTypeTransport, "fetch failed", inner)

	assert.ErrorIs(t, wrapped, inner)
	assert.Equal(t, inner, wrapped.Unwrap())
}

func TestAnalysisErrorIsMatchesByType(t *testing.T) {
	err := NewTransportError("fetch failed", errors.New("boom"))

	assert.ErrorIs(t, err, NewError(ErrorTypeTransport, "any transport error"))
	assert.NotErrorIs(t, err, NewError(ErrorTypeValidation, "a validation error"))
}

func TestAnalysisErrorContext(t *testing.T) {
	err := NewValidationError("bad hash", "txHash").AddContext("length", 10)

	assert.Equal(t, "txHash", err.Context["field"])
	assert.Equal(t, 10, err.Context["length"])
	assert.Equal(t, false, err.Context["recoverable"])
}

func TestShouldRetryOnlyRetryableTypes(t *testing.T) {
	recovery := NewErrorRecovery()

	transport := NewTransportError("fetch failed", errors.New("boom"))
	assert.True(t, recovery.ShouldRetry(transport, 0))
	assert.False(t, recovery.ShouldRetry(transport, recovery.MaxRetries), "retries are bounded")

	validation := NewValidationError("bad hash", "txHash")
	assert.False(t, recovery.ShouldRetry(validation, 0))
}

func TestGetRetryDelayBackoff(t *testing.T) {
	recovery := &ErrorRecovery{
		MaxRetries: 5,
		BaseDelay:  time.Second,
		MaxDelay:   5 * time.Second,
	}

	assert.Equal(t, time.Second, recovery.GetRetryDelay(0))
	assert.Equal(t, 2*time.Second, recovery.GetRetryDelay(1))
	assert.Equal(t, 4*time.Second, recovery.GetRetryDelay(2))
	assert.Equal(t, 5*time.Second, recovery.GetRetryDelay(3), "delay is capped")
}

func TestRetryWithRecoveryEventuallySucceeds(t *testing.T) {
	recovery := &ErrorRecovery{
		MaxRetries:     3,
		BaseDelay:      time.Millisecond,
		MaxDelay:       2 * time.Millisecond,
		RetryableTypes: map[ErrorType]bool{ErrorTypeTransport: true},
	}

	attempts := 0
	err := recovery.RetryWithRecovery(func() error {
		attempts++
		if attempts < 3 {
			return NewTransportError("fetch failed", errors.New("boom"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithRecoveryStopsOnNonRetryable(t *testing.T) {
	recovery := &ErrorRecovery{
		MaxRetries:     3,
		BaseDelay:      time.Millisecond,
		MaxDelay:       2 * time.Millisecond,
		RetryableTypes: map[ErrorType]bool{ErrorTypeTransport: true},
	}

	attempts := 0
	err := recovery.RetryWithRecovery(func() error {
		attempts++
		return NewValidationError("bad hash", "txHash")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
