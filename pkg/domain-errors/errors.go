// Package domainerrors provides coded domain errors shared by services and the
// HTTP transport. Errors are comparable values so tests and callers can use
// errors.Is against a sentinel constructed with the same code and message,
// while Is(err, code) answers the coarser "what kind of failure" question.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error independent of transport.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"
	CodeUnavailable  Code = "unavailable"
)

// Error is a coded domain error. It is a value type on purpose: two errors
// with the same code and message compare equal.
type Error struct {
	Code    Code
	Message string
}

func (e Error) Error() string {
	return e.Message
}

// New builds a coded error.
func New(code Code, message string) Error {
	return Error{Code: code, Message: message}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in this package.
func CodeOf(err error) Code {
	var de Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
