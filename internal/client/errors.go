package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/good-yellow-bee/trackadmin/internal/validation"
)

// ErrorKind classifies a failed call.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "Unauthorized"
	KindForbidden    ErrorKind = "Forbidden"
	KindNotFound     ErrorKind = "NotFound"
	KindServerError  ErrorKind = "ServerError"
	KindNetworkError ErrorKind = "NetworkError"
	KindValidation   ErrorKind = "ValidationError"
)

// User-facing messages per kind.
const (
	MsgUnauthorized = "Your session has expired. Please log in again."
	MsgForbidden    = "You do not have permission to access this resource."
	MsgNotFound     = "The requested record was not found."
	MsgServerError  = "An error occurred. Please try again later."
	MsgNetworkError = "No response received from the server. Please check your internet connection."
	MsgRejected     = "The request was rejected by the server."
)

// Error is the normalized failure of a backend call.
type Error struct {
	Kind    ErrorKind `json:"errorKind"`
	Status  int       `json:"status,omitempty"`
	Message string    `json:"message"`
	Op      string    `json:"-"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SessionEnding reports whether the error should tear down the session.
func (e *Error) SessionEnding() bool {
	return e.Kind == KindUnauthorized || e.Kind == KindForbidden
}

// KindOf classifies err. Validation failures raised before any network call
// report KindValidation. Unclassified errors report an empty kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if _, ok := validation.AsErrors(err); ok {
		return KindValidation
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetworkError
	}
	return ""
}

// Message returns the plain-language message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}

// statusError maps a non-2xx status to an Error. serverMsg, when present,
// replaces the generic text for kinds the user can act on.
func statusError(op string, status int, serverMsg string) *Error {
	e := &Error{Op: op, Status: status}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind, e.Message = KindUnauthorized, MsgUnauthorized
	case status == http.StatusForbidden:
		e.Kind, e.Message = KindForbidden, MsgForbidden
	case status == http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, orDefault(serverMsg, MsgNotFound)
	case status >= 500:
		e.Kind, e.Message = KindServerError, MsgServerError
	default:
		e.Kind, e.Message = KindValidation, orDefault(serverMsg, MsgRejected)
	}
	return e
}

func networkError(op string, err error) *Error {
	return &Error{Kind: KindNetworkError, Op: op, Message: MsgNetworkError, Err: err}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
