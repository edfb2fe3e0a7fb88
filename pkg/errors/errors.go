package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrInvalidArgument
	ErrInvalidState
	ErrUnauthorized
	ErrUnauthenticated
	ErrInternal
)

// Public message for every authorization failure. The reason stays in Err.
const accessDenied = "access denied"

func NotFound(message string) *AppError {
	return &AppError{Code: ErrNotFound, Message: message}
}

func InvalidArgument(message string, err error) *AppError {
	return &AppError{Code: ErrInvalidArgument, Message: message, Err: err}
}

func InvalidState(message string, err error) *AppError {
	return &AppError{Code: ErrInvalidState, Message: message, Err: err}
}

func Unauthorized(reason string) *AppError {
	return &AppError{Code: ErrUnauthorized, Message: accessDenied, Err: errors.New(reason)}
}

func Unauthenticated(message string) *AppError {
	return &AppError{Code: ErrUnauthenticated, Message: message}
}

func Internal(err error) *AppError {
	return &AppError{Code: ErrInternal, Message: "internal server error", Err: err}
}

// Is reports whether any AppError in err's chain carries code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HTTPStatus maps err onto the status code the API returns for it.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidArgument:
		return http.StatusBadRequest
	case ErrInvalidState:
		return http.StatusConflict
	case ErrUnauthorized:
		return http.StatusForbidden
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to return to a client for err.
func PublicMessage(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code == ErrInternal {
		return "internal server error"
	}
	return appErr.Message
}
