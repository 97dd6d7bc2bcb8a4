// Package errors defines the gateway's HTTP error surface: a structured
// AppError with a stable code, and the predefined errors controllers map
// service failures onto. Invalid-OTP, invalid-state and remote-error
// conditions are distinct codes on purpose; callers and users must be able
// to tell them apart.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// AppError is the standard application error shape.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // original cause, for logs only
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail returns a copy with extra detail; the base errors are shared
// and must not be mutated.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause returns a copy carrying the original error.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// FromError converts any error into an AppError, defaulting to a generic
// internal error that keeps the cause for logging.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError writes the JSON error response for err.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// 400 Bad Request

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request has invalid syntax or missing parameters.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "The request body is not valid JSON.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Required fields are missing from the request.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrInvalidState: resumption was attempted with a state id that is
	// unknown, expired, or not at the OTP stage. Fatal to the request.
	ErrInvalidState = &AppError{
		Code:       "INVALID_STATE",
		Message:    "The authentication state is missing, expired, or not at the OTP stage.",
		HTTPStatus: http.StatusBadRequest,
	}
)

// 401 Unauthorized

var (
	// ErrInvalidOTP: the validation server rejected the OTP. The user may
	// retry against the same state id while attempts remain.
	ErrInvalidOTP = &AppError{
		Code:       "INVALID_OTP",
		Message:    "The one-time password was not accepted.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Wrong username or password.",
		HTTPStatus: http.StatusUnauthorized,
	}
)

// 404 / 405

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "The requested resource does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "The HTTP method is not allowed for this resource.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}
)

// 429 Too Many Requests

var (
	ErrTooManyAttempts = &AppError{
		Code:       "TOO_MANY_ATTEMPTS",
		Message:    "Too many failed attempts; the pending authentication was cancelled.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrRateLimited = &AppError{
		Code:       "RATE_LIMITED",
		Message:    "Too many requests; try again later.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// 5xx

var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred while processing the request.",
		HTTPStatus: http.StatusInternalServerError,
	}

	// ErrValidationUnavailable: the validation server was unreachable,
	// answered garbage, or reported an internal error. Never presented
	// as an invalid OTP.
	ErrValidationUnavailable = &AppError{
		Code:       "OTP_SERVER_ERROR",
		Message:    "The validation server could not process the request.",
		HTTPStatus: http.StatusBadGateway,
	}
)
