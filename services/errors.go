package services

import (
	"errors"
	"net/http"
)

// Kind classifies a service error for callers and the transport layer.
type Kind string

const (
	KindInvalidInput      Kind = "INVALID_INPUT"      // malformed request, client must fix
	KindConflict          Kind = "CONFLICT"           // uniqueness or state race lost
	KindInvalidTransition Kind = "INVALID_TRANSITION" // not legal from current status
	KindNotFound          Kind = "NOT_FOUND"          // bounty or roster entry absent
	KindUnavailable       Kind = "UNAVAILABLE"        // storage transient failure, retryable
)

// AppError carries the error kind across the service boundary. The kind is
// part of the core's contract; the message is for humans.
type AppError struct {
	Kind    Kind
	Message string
}

func (e *AppError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// HTTPStatus maps the kind to its stable transport status code.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConflict, KindInvalidTransition:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func ErrInvalidInput(msg string) error      { return &AppError{Kind: KindInvalidInput, Message: msg} }
func ErrConflict(msg string) error          { return &AppError{Kind: KindConflict, Message: msg} }
func ErrInvalidTransition(msg string) error { return &AppError{Kind: KindInvalidTransition, Message: msg} }
func ErrNotFound(msg string) error          { return &AppError{Kind: KindNotFound, Message: msg} }
func ErrUnavailable(msg string) error       { return &AppError{Kind: KindUnavailable, Message: msg} }

// ErrKind extracts the Kind from err, or "" for non-service errors.
func ErrKind(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
