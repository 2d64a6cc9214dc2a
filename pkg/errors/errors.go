package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the widget's failure taxonomy. Validation errors are
// rejected locally before any network call. Remote errors come back from the
// chat service. Stream errors abort an in-flight assistant reply.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeRemote     = "REMOTE_ERROR"
	CodeStream     = "STREAM_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

// AppError is an application error with a machine-readable code and a
// message safe to show in the banner. HTTPStatus is set for remote errors
// that failed at the transport level.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WithDetails attaches details to the error.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewValidationError creates a locally-rejected input error. No network call
// should be made for the operation that produced it.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewRemoteError creates an error for a failed remote call whose response
// carried an error envelope.
func NewRemoteError(message string) *AppError {
	return &AppError{Code: CodeRemote, Message: message, HTTPStatus: http.StatusOK}
}

// NewHTTPError creates a generic remote failure for a non-success transport
// status. The status code is part of the message, as that is all the caller
// has to go on.
func NewHTTPError(status int) *AppError {
	return &AppError{
		Code:       CodeRemote,
		Message:    fmt.Sprintf("request failed with status %d", status),
		HTTPStatus: status,
	}
}

// NewStreamError creates an error for an aborted reply stream.
func NewStreamError(message string) *AppError {
	return &AppError{Code: CodeStream, Message: message}
}

// FromError converts any error to an AppError, wrapping unknown errors as
// internal ones.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: CodeInternal, Message: err.Error()}
}

// IsValidation reports whether err is a locally-rejected validation error.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsStream reports whether err is an aborted-stream error.
func IsStream(err error) bool {
	return hasCode(err, CodeStream)
}

func hasCode(err error, code string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// UserMessage returns the text to display in the banner for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return FromError(err).Message
}
