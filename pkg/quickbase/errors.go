// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package quickbase

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// InvalidArgument marks bad or missing arguments detected locally, before any network call.
	InvalidArgument Kind = "invalid_argument"
	// Authentication marks rejected credentials or a ticket the server refused twice.
	Authentication Kind = "authentication"
	// Resolution marks an application name that could not be resolved to a dbid.
	Resolution Kind = "resolution"
	// SchemaMismatch marks a schema that lacks something the operation requires.
	SchemaMismatch Kind = "schema"
	// UnknownField marks a condition label absent from the schema.
	UnknownField Kind = "unknown_field"
	// UnsupportedOperator marks an operator outside the query vocabulary.
	UnsupportedOperator Kind = "unsupported_operator"
	// Remote marks any other non-zero errcode returned by the service.
	Remote Kind = "remote"
	// TransportFailure marks network, HTTP status, and response decoding failures.
	TransportFailure Kind = "transport"
)

// Error is the single error type returned by this package.
// Code holds the service errcode when the failure came from a response.
type Error struct {
	Kind    Kind
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (errcode %d)", msg, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches kind sentinels, so errors.Is(err, ErrUnknownField) works on any
// UnknownField error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Code == 0 && e.Kind == t.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidArgument     = &Error{Kind: InvalidArgument}
	ErrAuthentication      = &Error{Kind: Authentication}
	ErrResolution          = &Error{Kind: Resolution}
	ErrSchema              = &Error{Kind: SchemaMismatch}
	ErrUnknownField        = &Error{Kind: UnknownField}
	ErrUnsupportedOperator = &Error{Kind: UnsupportedOperator}
	ErrRemote              = &Error{Kind: Remote}
	ErrTransport           = &Error{Kind: TransportFailure}
)

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func wrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
