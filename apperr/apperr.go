// Package apperr classifies failures so the HTTP and CLI layers can decide
// how to surface them.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies who caused a failure
type Kind string

const (
	KindInput       Kind = "input"
	KindNotFound    Kind = "not_found"
	KindPersistence Kind = "persistence"
	KindInternal    Kind = "internal"
)

// Error is an application error with a kind and a human readable message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Input reports a client caused failure
func Input(message string) *Error {
	return &Error{Kind: KindInput, Message: message}
}

// NotFound reports a missing resource
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Persistence wraps a store failure
func Persistence(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// Internal wraps any other server side failure
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Message returns the user facing message for err. Errors that are not
// classified are reported generically so driver details do not leak.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal Server Error"
}
