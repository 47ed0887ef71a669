// Package domainerrors defines the coded error taxonomy shared by all three
// registries. Services return these; the HTTP layer translates codes to
// status codes. Stores do NOT use this package — they return
// pkg/platform/sentinel errors and services translate.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure. The set is uniform across the
// qualification, privilege, and panel registries.
type Code string

const (
	// CodeUnauthorized: caller lacks the required role — admin, verified
	// authority, or record-owning authority.
	CodeUnauthorized Code = "unauthorized"
	// CodeAlreadyExists: registration attempted for an identity that already
	// holds an authority record.
	CodeAlreadyExists Code = "already_exists"
	// CodeNotFound: referenced authority or record does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidInput: input failed length or shape validation.
	CodeInvalidInput Code = "invalid_input"
	// CodeExpired is declared for taxonomy completeness. No current operation
	// raises it: expiration surfaces only through validity evaluation.
	CodeExpired Code = "expired"
	// CodeInternal: infrastructure failure; nothing wrong with the request.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Message is safe to surface to callers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so infrastructure failures never leak detail to callers.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the transport layer should write.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
