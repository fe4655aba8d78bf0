package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")

	// Payment provider errors, classified by response status.
	ErrProviderAuth        = errors.New("payment provider authentication failed")
	ErrProviderForbidden   = errors.New("payment provider permission denied")
	ErrProviderMisconfig   = errors.New("payment provider endpoint not found")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrProviderFailed      = errors.New("payment provider request failed")

	// ErrIdentityNotFound is returned when the requester cannot be resolved
	// in the target platform within the bounded wait.
	ErrIdentityNotFound = errors.New("identity not found")
)

// AppError represents an application error with an HTTP status code.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthorized)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "internal server error", err)
}

// ProviderError maps an LNBits response status to a classified, user-facing
// error. The messages mirror what the operator needs to act on.
func ProviderError(status int) *AppError {
	switch {
	case status >= 500:
		return NewAppError(http.StatusBadGateway,
			"payment provider server error - Lightning node may be disconnected", ErrProviderUnavailable)
	case status == http.StatusUnauthorized:
		return NewAppError(http.StatusBadGateway,
			"payment provider authentication failed - invalid API key", ErrProviderAuth)
	case status == http.StatusForbidden:
		return NewAppError(http.StatusBadGateway,
			"payment provider permission denied - API key may lack invoice permission", ErrProviderForbidden)
	case status == http.StatusNotFound:
		return NewAppError(http.StatusBadGateway,
			"payment provider endpoint not found - check provider URL", ErrProviderMisconfig)
	default:
		return NewAppError(http.StatusBadGateway,
			"payment provider error - please try again later", ErrProviderFailed)
	}
}
