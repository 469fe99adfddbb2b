// Package apperror defines coded application errors and their HTTP mapping.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an application error.
type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeConflict     Code = "CONFLICT"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// InternalMessage is the only message a client ever sees for an unexpected fault.
const InternalMessage = "Internal Server Error."

// Error is an application error carrying a code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to err. Wrap(nil, ...) returns nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// NotFound, Unauthorized, Conflict and Validation are shorthands for New.
func NotFound(message string) *Error     { return New(CodeNotFound, message) }
func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }
func Conflict(message string) *Error     { return New(CodeConflict, message) }
func Validation(message string) *Error   { return New(CodeValidation, message) }

// HTTPStatus returns the status code for e.
func (e *Error) HTTPStatus() int {
	if e == nil {
		return http.StatusOK
	}
	switch e.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage is the message safe to return to a client: internal errors are
// reduced to InternalMessage.
func (e *Error) ClientMessage() string {
	if e == nil {
		return ""
	}
	if e.HTTPStatus() == http.StatusInternalServerError {
		return InternalMessage
	}
	return e.Message
}

// From extracts an *Error from err, wrapping unknown errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, CodeInternal, InternalMessage)
}

// Body is the JSON shape written for any non-2xx response produced by the error handler.
type Body struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}
