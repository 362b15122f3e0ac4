// Package apperrors carries the error taxonomy shared by the service layer:
// NotFound, Forbidden, BadRequest and Unavailable, each with a client-safe
// message. Handlers map them onto HTTP statuses with HTTPStatus.
package apperrors

import (
	"errors"
	"net/http"
)

type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func NotFound(message string) error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

func Forbidden(message string) error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

func BadRequest(message string) error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

func Unavailable(message string) error {
	return &Error{Status: http.StatusServiceUnavailable, Message: message}
}

// HTTPStatus resolves err to a status code and a message safe to send to the
// client. Unknown errors collapse to a generic 500.
func HTTPStatus(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) {
		return e.Status, e.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, status int) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == status
}
