package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API clients.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeNotFoundBreak  = "NOT_FOUND_BREAK_SETTING"
	CodeBreakActive    = "AGENT_STATUS_BREAK_ACTIVE"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternal       = "INTERNAL"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFoundBreakSetting(err error) *Error {
	return New(http.StatusNotFound, CodeNotFoundBreak, err)
}

func BreakActive() *Error {
	return New(http.StatusForbidden, CodeBreakActive, nil)
}

// From extracts an *Error from err, or wraps err as an internal error.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusInternalServerError, CodeInternal, err)
}
