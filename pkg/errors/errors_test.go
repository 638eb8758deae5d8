package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeInvalidParameter, "core count must be positive"),
			expected: "[INVALID_PARAMETER] core count must be positive",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeDetectionError, "detect tx 3", errors.New("unknown contract")),
			expected: "[DETECTION_ERROR] detect tx 3: unknown contract",
		},
		{
			name:     "formatted message",
			err:      Newf(CodeConsistencyError, "lost %d transactions", 2),
			expected: "[CONSISTENCY_ERROR] lost 2 transactions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeDetectionError, "detection failed", underlying)

	assert.Equal(t, underlying, err.Unwrap())
	assert.True(t, errors.Is(err, underlying))
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeInvalidParameter, "error 1")
	err2 := New(CodeInvalidParameter, "error 2")
	err3 := New(CodeConsistencyError, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIsInvalidParameter(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"sentinel", ErrInvalidParameter, true},
		{"new with same code", Newf(CodeInvalidParameter, "core count %d", 0), true},
		{"wrapped by fmt", fmt.Errorf("rebalance: %w", New(CodeInvalidParameter, "bad")), true},
		{"other code", ErrConsistencyError, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsInvalidParameter(tt.err))
		})
	}
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsDetectionError(Wrap(CodeDetectionError, "x", errors.New("y"))))
	assert.False(t, IsDetectionError(ErrNotFound))
	assert.True(t, IsConsistencyError(ErrConsistencyError))
	assert.False(t, IsConsistencyError(ErrInvalidParameter))
	assert.True(t, IsNotFound(New(CodeNotFound, "contract")))
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"app error", New(CodeStorageError, "load"), CodeStorageError},
		{"wrapped app error", fmt.Errorf("outer: %w", Wrap(CodeDatabaseError, "q", errors.New("inner"))), CodeDatabaseError},
		{"standard error", errors.New("standard error"), CodeUnknown},
		{"nil error", nil, CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCode(tt.err))
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"app error", New(CodeConfigError, "core_count must be positive"), "core_count must be positive"},
		{"standard error", errors.New("standard error"), "standard error"},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorMessage(tt.err))
		})
	}
}
