// Package apperr defines the uniform error record returned by every service call.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Error codes. The numeric prefix selects the HTTP status.
const (
	CodeInvalidInput    = "400-INVALID-INPUT"
	CodeInvalidOption   = "400-INVALID-OPTION"
	CodeUnauthorized    = "401-UNAUTHORIZED"
	CodeForbidden       = "403-FORBIDDEN"
	CodeTimerExpired    = "403-TIMER-EXPIRED"
	CodeTimerNotExpired = "403-TIMER-NOT-EXPIRED"
	CodePollClosed      = "403-POLL-CLOSED"
	CodeNotFound        = "404-NOT-FOUND"
	CodeVoteExists      = "409-VOTE-EXISTS"
	CodeUserExists      = "409-USER-EXISTS"
	CodeGameEnded       = "409-GAME-ENDED"
	CodeServerError     = "500-SERVER-ERROR"
)

// Error is the {code, message, details} record surfaced to callers.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return e.Code + ": " + e.Message + " (" + e.Details + ")"
	}
	return e.Code + ": " + e.Message
}

// Is matches another *Error by code so errors.Is works against the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy carrying details.
func (e *Error) WithDetails(details string) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Status maps the code prefix to an HTTP status.
func (e *Error) Status() int {
	switch {
	case strings.HasPrefix(e.Code, "400"):
		return http.StatusBadRequest
	case strings.HasPrefix(e.Code, "401"):
		return http.StatusUnauthorized
	case strings.HasPrefix(e.Code, "403"):
		return http.StatusForbidden
	case strings.HasPrefix(e.Code, "404"):
		return http.StatusNotFound
	case strings.HasPrefix(e.Code, "409"):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// New builds an error record.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func InvalidInput(message string) *Error { return New(CodeInvalidInput, message) }
func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }
func Forbidden(message string) *Error    { return New(CodeForbidden, message) }
func NotFound(message string) *Error     { return New(CodeNotFound, message) }
func Conflict(code, message string) *Error {
	return New(code, message)
}

// Server wraps an unexpected fault. The cause goes into Details.
func Server(message string, cause error) *Error {
	e := New(CodeServerError, message)
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// From converts any error into an *Error. Foreign errors become 500-SERVER-ERROR.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Server("unexpected server error", err)
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
