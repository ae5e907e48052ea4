package assistant

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Error represents an API error returned by the platform.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Status  int       `json:"status,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status: %d)", e.Type, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes API errors.
type ErrorType string

const (
	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrAuthentication ErrorType = "authentication_error"
	ErrPermission     ErrorType = "permission_error"
	ErrNotFound       ErrorType = "not_found_error"
	ErrRateLimit      ErrorType = "rate_limit_error"
	ErrAPI            ErrorType = "api_error"
)

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message}
}

// NewAuthenticationError creates an authentication error.
func NewAuthenticationError(message string) *Error {
	return &Error{Type: ErrAuthentication, Message: message}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string) *Error {
	return &Error{Type: ErrAPI, Message: message}
}

// Sentinel errors for client-side state preconditions.
var (
	// ErrNotAuthenticated is returned once the refresh flow is exhausted.
	// All local auth state has been cleared; the caller must log in again.
	ErrNotAuthenticated = errors.New("assistant: re-authentication required")

	// ErrSessionNotOpen is returned by ChatSession.Send while the
	// connection is not in the Open state. Sends are never queued.
	ErrSessionNotOpen = errors.New("assistant: chat session is not open")

	// ErrSessionClosed is returned for operations on a torn-down session.
	ErrSessionClosed = errors.New("assistant: chat session is closed")
)

// TransportError represents HTTP transport-level failures (DNS, timeouts,
// connection reset, TLS handshake) while talking to the platform.
//
// Use errors.As(err, &TransportError{}) to distinguish transport failures
// from API errors (*Error).
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Op != "" && e.URL != "":
		return fmt.Sprintf("transport error during %s %s: %v", e.Op, redactURLUserInfo(e.URL), e.Err)
	case e.Op != "":
		return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("transport error: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func redactURLUserInfo(raw string) string {
	if raw == "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}
	parsed.User = nil
	return parsed.String()
}

// errorTypeForStatus maps an HTTP status to the canonical error type.
func errorTypeForStatus(status int) ErrorType {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrInvalidRequest
	case http.StatusUnauthorized:
		return ErrAuthentication
	case http.StatusForbidden:
		return ErrPermission
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimit
	default:
		return ErrAPI
	}
}
