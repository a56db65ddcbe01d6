package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError. The set is closed; HTTPStatus covers every member.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindRateLimit
	KindDependency
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimit:
		return "rate_limit"
	case KindDependency:
		return "dependency"
	case KindInternal:
		return "internal"
	}
	return "internal"
}

// HTTPStatus maps the kind onto the status code rendered to API consumers.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindDependency, KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// AppError provides a structured error that can be rendered to API consumers.
type AppError struct {
	Kind     Kind   `json:"-"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Internal error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is reports whether target is an AppError carrying the same code, so copies
// produced by WithInternal still match their sentinel.
func (e *AppError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*AppError)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

// StatusCode returns the HTTP status associated with the error kind.
func (e *AppError) StatusCode() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	return e.Kind.HTTPStatus()
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// WithMessage returns a copy of the AppError that renders a different message.
func (e *AppError) WithMessage(message string) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Message = message
	return &cpy
}

// Common errors exposed to the rest of the application.
var (
	ErrUnauthorized = &AppError{
		Kind:    KindAuthentication,
		Code:    "UNAUTHORIZED",
		Message: "Authentication required",
	}

	ErrInvalidCredentials = &AppError{
		Kind:    KindAuthentication,
		Code:    "INVALID_CREDENTIALS",
		Message: "Invalid credentials",
	}

	ErrForbidden = &AppError{
		Kind:    KindAuthorization,
		Code:    "FORBIDDEN",
		Message: "Permission denied",
	}

	ErrNotFound = &AppError{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: "Resource not found",
	}

	ErrBadRequest = &AppError{
		Kind:    KindValidation,
		Code:    "BAD_REQUEST",
		Message: "Invalid request",
	}

	ErrConflict = &AppError{
		Kind:    KindConflict,
		Code:    "CONFLICT",
		Message: "Resource already exists",
	}

	ErrInternalServer = &AppError{
		Kind:    KindInternal,
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "Internal server error",
	}

	ErrDependency = &AppError{
		Kind:    KindDependency,
		Code:    "DEPENDENCY_FAILURE",
		Message: "Upstream dependency failed",
	}

	ErrRateLimit = &AppError{
		Kind:    KindRateLimit,
		Code:    "RATE_LIMIT_EXCEEDED",
		Message: "Too many requests, please slow down",
	}
)

// New builds a new application error with the provided metadata.
func New(kind Kind, code, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalServer.WithInternal(err)
}

// NewBadRequest wraps validation errors with a helpful message.
func NewBadRequest(message string) *AppError {
	return ErrBadRequest.WithMessage(message)
}
