package common

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error codes carried by AppError.
const (
	CodeConfig       = "CONFIG_ERROR"
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodeDatabase     = "DATABASE_ERROR"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUpstream     = errors.New("upstream service error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func InvalidInput(message string) *AppError {
	return NewAppError(CodeInvalidInput, message, ErrInvalidInput)
}

func NotFound(message string) *AppError {
	return NewAppError(CodeNotFound, message, ErrNotFound)
}

// Upstream wraps a failure of an external collaborator (OCR service, directory store).
func Upstream(message string, cause error) *AppError {
	return NewAppError(CodeUpstream, message, errors.Join(ErrUpstream, cause))
}

func Database(message string, cause error) *AppError {
	return NewAppError(CodeDatabase, message, errors.Join(ErrDatabase, cause))
}

// HTTPStatus maps an error onto the status code returned to API callers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode maps an error onto a gRPC status code.
func GRPCCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrUpstream):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// ToStatus converts any error into a gRPC status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	var app *AppError
	if errors.As(err, &app) {
		return status.Error(GRPCCode(err), app.Message)
	}
	return status.Error(GRPCCode(err), err.Error())
}

// PublicMessage returns the message safe to expose in an API response.
func PublicMessage(err error) string {
	var app *AppError
	if errors.As(err, &app) {
		return app.Message
	}
	return err.Error()
}
