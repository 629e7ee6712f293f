package providers

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned when a provider that needs a key has none.
var ErrMissingAPIKey = errors.New("API key is not configured")

// AuthError reports a credential rejected by the reasoning service.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication error (status %d): %s", e.StatusCode, e.Message)
}

// StatusError reports any other non-success HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

func statusError(code int, body []byte) error {
	msg := truncate(string(body), 512)
	if code == 401 || code == 403 {
		return &AuthError{StatusCode: code, Message: msg}
	}
	return &StatusError{StatusCode: code, Body: msg}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
