package tools

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a protocol-level rejection.
type ErrorCode int

const (
	// CodeUnknownTool means the requested tool is not registered.
	CodeUnknownTool ErrorCode = iota + 1
	// CodeMissingArgument means a required argument is absent or empty.
	CodeMissingArgument
	// CodeInvalidRequest means the request itself is malformed.
	CodeInvalidRequest
	// CodeInternal means the invocation failed for a reason unrelated to the
	// upstream API.
	CodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case CodeUnknownTool:
		return "unknown_tool"
	case CodeMissingArgument:
		return "missing_argument"
	case CodeInvalidRequest:
		return "invalid_request"
	case CodeInternal:
		return "internal"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Error is a protocol-level error: the request was rejected or the
// invocation broke down, as opposed to an upstream failure reported inside
// an Envelope.
type Error struct {
	Code    ErrorCode
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// JSONRPCCode maps the error onto the JSON-RPC 2.0 error space.
func (e *Error) JSONRPCCode() int {
	switch e.Code {
	case CodeUnknownTool, CodeMissingArgument:
		return -32602
	case CodeInvalidRequest:
		return -32600
	default:
		return -32603
	}
}

// HTTPStatus maps the error onto an HTTP status for the HTTP transport.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeUnknownTool:
		return http.StatusNotFound
	case CodeMissingArgument, CodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func internalError(err error, format string, args ...any) *Error {
	e := newError(CodeInternal, format, args...)
	e.cause = err
	return e
}

// UnknownTool returns the error reported for an unregistered tool name.
func UnknownTool(name string) *Error {
	return newError(CodeUnknownTool, "unknown tool: %s", name)
}

// InvalidRequest returns the error reported for a malformed request.
func InvalidRequest(format string, args ...any) *Error {
	return newError(CodeInvalidRequest, format, args...)
}

// AsError converts any error into an *Error. Errors that are not already
// protocol errors become CodeInternal with the original message.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return internalError(err, "%s", err.Error())
}

// IsCode reports whether err is a protocol error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
