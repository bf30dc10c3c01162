package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the single error type returned by the backend client. Message is
// meant to be shown to the administrator as-is.
type Error struct {
	// StatusCode is the HTTP status, or 0 when the request never got a response.
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// StatusError builds the generic message used when the response carried no
// usable detail.
func StatusError(code int) *Error {
	return &Error{StatusCode: code, Message: fmt.Sprintf("Erreur %d", code)}
}

// TransportError wraps a failure to reach the backend at all.
func TransportError(err error) *Error {
	return &Error{Message: fmt.Sprintf("Erreur réseau : %s", err)}
}

// IsUnauthorized reports whether err is a 401 from the backend, typically an
// expired token.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == http.StatusUnauthorized
}

// Message returns the user facing text of any error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
