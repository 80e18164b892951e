package overpass

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a query failure.
type ErrorCode string

const (
	// ErrInvalidArgument indicates a bad element type, recursion directive,
	// tag filter, or malformed spatial filter. Raised before any network I/O.
	ErrInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrConnection indicates a transport-level failure or timeout.
	ErrConnection ErrorCode = "CONNECTION"

	// ErrRequestFailed indicates a non-2xx HTTP status from the Overpass
	// endpoint. The error carries the status and response body.
	ErrRequestFailed ErrorCode = "REQUEST_FAILED"

	// ErrParse indicates a malformed or empty response body.
	ErrParse ErrorCode = "PARSE"
)

// maxErrorBody bounds how much of a failing response body is kept on the
// error. Overpass error pages can be large HTML documents.
const maxErrorBody = 2048

// Error is the error type returned by all query operations.
type Error struct {
	Code    ErrorCode
	Message string
	Status  int    // HTTP status, set for REQUEST_FAILED
	Body    string // truncated response body, set for REQUEST_FAILED
	Query   string // the Overpass QL text, when available
	Err     error  // underlying cause, when available
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithQuery attaches the query text to the error.
func (e *Error) WithQuery(query string) *Error {
	e.Query = query
	return e
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// WithStatus attaches the HTTP status and response body.
func (e *Error) WithStatus(status int, body []byte) *Error {
	e.Status = status
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	e.Body = string(body)
	return e
}

// CodeOf returns the ErrorCode of err, or "" if err is not an overpass
// Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err is an overpass Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
