package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse means the backend answered success but omitted a
	// required field (e.g. a login response without token, role or email).
	ErrMalformedResponse = errors.New("malformed response from server")

	// ErrUnauthorized wraps every 401/403 the transport returns. The
	// transport notifies its unauthorized observers before the error
	// reaches the caller.
	ErrUnauthorized = errors.New("unauthorized")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidInput      = errors.New("invalid input")
)

// APIError is a non-2xx response from the backend, carrying whatever
// human-readable message the error envelope provided.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.StatusCode)
}

// Unauthorized reports whether the error is an authorization failure,
// either the sentinel or an APIError with status 401/403.
func Unauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode == 401 || ae.StatusCode == 403
	}
	return false
}
