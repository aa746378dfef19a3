package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/repository"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/service/announcement"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/service/auth"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/service/quiz"
)

// Error is the tagged failure type handlers return. The router's handler
// wrapper is the only place that turns it (or any other error) into a
// response.
type Error struct {
	Status  int               `json:"-"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// NewError builds a response-ready error.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// validationFailed enumerates the violated fields of a request contract.
func validationFailed(fields map[string]string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: "validation failed", Fields: fields}
}

// mapError converts a propagated failure into a response-ready Error.
// Known kinds get a stable message; everything else collapses to a
// generic 500 and the caller logs the detail. Token failures share one
// message so callers cannot distinguish malformed, tampered, expired and
// revoked tokens.
func mapError(err error) *Error {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, repository.ErrNotFound):
		return NewError(http.StatusNotFound, "resource not found")
	case errors.Is(err, repository.ErrDuplicateEmail):
		return NewError(http.StatusConflict, "email already exists, please try another email")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return NewError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenRevoked):
		return NewError(http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, announcement.ErrNotOwner), errors.Is(err, quiz.ErrNotOwner):
		return NewError(http.StatusForbidden, "you are not allowed to modify this resource")
	default:
		return NewError(http.StatusInternalServerError, "something went wrong, please try again later")
	}
}
