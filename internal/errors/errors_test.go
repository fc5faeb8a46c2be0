package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DebugError
		expected string
	}{
		{
			name:     "with details",
			err:      &DebugError{Code: ErrCodeInitiationFailed, Message: "Failed", Details: "abc"},
			expected: "INITIATION_FAILED: Failed (abc)",
		},
		{
			name:     "without details",
			err:      &DebugError{Code: ErrCodeNoSession, Message: "none"},
			expected: "NO_SESSION: none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDebugError_Classification(t *testing.T) {
	tests := []struct {
		name      string
		err       *DebugError
		retryable bool
		notReady  bool
	}{
		{"not ready", NewNotReadyError(nil), true, true},
		{"request failed", NewRequestError("boom", http.StatusInternalServerError, nil), true, false},
		{"no session", NewNoSessionError(), false, false},
		{"popup blocked", NewPopupBlockedError(nil), false, false},
		{"initiation", NewInitiationError("abc", nil), false, false},
		{"config", NewConfigurationError("bad", nil), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())
			assert.Equal(t, tt.notReady, tt.err.IsNotReady())
		})
	}
}

func TestNewRequestError_DefaultMessage(t *testing.T) {
	err := NewRequestError("", http.StatusBadGateway, nil)
	assert.Equal(t, MessageFetchFailed, err.Message)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
}

func TestAsDebugError_Wrapped(t *testing.T) {
	inner := errors.New("dial tcp: refused")
	wrapped := fmt.Errorf("fetch: %w", NewRequestError("", 0, inner))

	debugErr, ok := AsDebugError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeRequestFailed, debugErr.Code)
	assert.True(t, errors.Is(wrapped, inner))
	assert.True(t, HasCode(wrapped, ErrCodeRequestFailed))
	assert.False(t, HasCode(errors.New("plain"), ErrCodeRequestFailed))
}

func TestFormatUserMessage(t *testing.T) {
	assert.Equal(t, "", FormatUserMessage(nil))
	assert.Equal(t, MessageResultNotReady, FormatUserMessage(NewNotReadyError(nil)))
	assert.Equal(t, MessageNoSession, FormatUserMessage(NewNoSessionError()))
	assert.Equal(t, "Session expired", FormatUserMessage(NewRequestError("Session expired", 401, nil)))
	assert.Equal(t, MessageFetchFailed, FormatUserMessage(errors.New("plain")))
}
