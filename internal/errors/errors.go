// Package errors provides the coded error taxonomy of a connection test run.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents specific error types
type ErrorCode string

const (
	// Result retrieval
	ErrCodeResultNotReady ErrorCode = "RESULT_NOT_READY"
	ErrCodeRequestFailed  ErrorCode = "REQUEST_FAILED"
	ErrCodeNoSession      ErrorCode = "NO_SESSION"

	// Test run
	ErrCodeInitiationFailed ErrorCode = "INITIATION_FAILED"
	ErrCodePopupBlocked     ErrorCode = "POPUP_BLOCKED"

	// Configuration
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
)

// Messages shown to the operator when the backend does not provide one.
const (
	MessageResultNotReady = "Debug results not yet available. The backend may still be processing the authentication flow. Try refreshing in a few seconds."
	MessageNoSession      = "No debug session id found. Please run the connection test first."
	MessageFetchFailed    = "Failed to fetch debug results."
	MessagePopupBlocked   = "The authentication window could not be opened. Allow popups for this console and run the test again."
)

// DebugError represents a structured error with context
type DebugError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Internal   error     `json:"-"` // Internal error, not exposed
}

// Error implements the error interface
func (e *DebugError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error for error wrapping
func (e *DebugError) Unwrap() error {
	return e.Internal
}

// IsRetryable reports whether an explicit operator retry can change the outcome.
func (e *DebugError) IsRetryable() bool {
	return e.Code == ErrCodeResultNotReady ||
		e.Code == ErrCodeRequestFailed
}

// IsNotReady reports whether the backend has not produced the result yet.
// The backend answers 404 both while it is still processing and after the
// session has been evicted, so both cases land here.
func (e *DebugError) IsNotReady() bool {
	return e.Code == ErrCodeResultNotReady
}

// NewNotReadyError creates the transient "still processing" error.
func NewNotReadyError(internal error) *DebugError {
	return &DebugError{
		Code:       ErrCodeResultNotReady,
		Message:    MessageResultNotReady,
		HTTPStatus: http.StatusNotFound,
		Internal:   internal,
	}
}

// NewRequestError creates a request failure error. message is what the
// operator sees and should be the backend message when one was returned.
func NewRequestError(message string, status int, internal error) *DebugError {
	if message == "" {
		message = MessageFetchFailed
	}
	return &DebugError{
		Code:       ErrCodeRequestFailed,
		Message:    message,
		HTTPStatus: status,
		Internal:   internal,
	}
}

// NewNoSessionError creates the resolution failure error.
func NewNoSessionError() *DebugError {
	return &DebugError{
		Code:    ErrCodeNoSession,
		Message: MessageNoSession,
	}
}

// NewInitiationError wraps a failure of the test initiation request.
func NewInitiationError(idpID string, internal error) *DebugError {
	return &DebugError{
		Code:     ErrCodeInitiationFailed,
		Message:  "Failed to start the connection test",
		Details:  idpID,
		Internal: internal,
	}
}

// NewPopupBlockedError reports that the authentication window could not be opened.
func NewPopupBlockedError(internal error) *DebugError {
	return &DebugError{
		Code:     ErrCodePopupBlocked,
		Message:  MessagePopupBlocked,
		Internal: internal,
	}
}

// NewConfigurationError creates a configuration-related error
func NewConfigurationError(message string, internal error) *DebugError {
	return &DebugError{
		Code:     ErrCodeConfigInvalid,
		Message:  message,
		Internal: internal,
	}
}

// AsDebugError finds the first DebugError in err's chain.
func AsDebugError(err error) (*DebugError, bool) {
	var debugErr *DebugError
	if errors.As(err, &debugErr) {
		return debugErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	debugErr, ok := AsDebugError(err)
	return ok && debugErr.Code == code
}

// FormatUserMessage creates a user-friendly error message
func FormatUserMessage(err error) string {
	if err == nil {
		return ""
	}
	if debugErr, ok := AsDebugError(err); ok {
		switch debugErr.Code {
		case ErrCodeResultNotReady:
			return MessageResultNotReady
		case ErrCodeNoSession:
			return MessageNoSession
		case ErrCodePopupBlocked:
			return MessagePopupBlocked
		default:
			if debugErr.Message != "" {
				return debugErr.Message
			}
		}
	}
	return MessageFetchFailed
}
