// Package errs is the susepkg error domain.
//
// Errors created at a system boundary (an HTTP call, a parsed record, a
// user-supplied term) are wrapped in an *Error carrying a Kind. Intermediate
// layers add context with fmt.Errorf and "%w" rather than nesting another
// *Error, so callers can always branch with errors.Is(err, errs.ErrTransient).
package errs

import (
	"errors"
	"strings"
)

// Error is the susepkg error type.
type Error struct {
	Inner   error
	Kind    Kind
	Message string
	Op      string
}

var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	switch e.Kind {
	case ErrNotFound, ErrTransient, ErrMalformed, ErrInvalid:
		b.WriteString(string(e.Kind))
	default:
		b.WriteString("???")
	}
	b.WriteString("]: ")
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Message != "" && e.Inner != nil {
		b.WriteString(": ")
	}
	if e.Op == "" && e.Message == "" {
		b.Reset()
	}
	if e.Inner != nil {
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables errors.Is against a Kind.
func (e *Error) Is(kind error) bool {
	return errors.Is(e.Kind, kind)
}

// Unwrap enables errors.Unwrap.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Kind classifies errors.
type Kind string

// Defined error kinds.
var (
	ErrNotFound  = Kind("not found") // product or catalog id unresolved
	ErrTransient = Kind("transient") // network or backend failure
	ErrMalformed = Kind("malformed") // unparseable backend record
	ErrInvalid   = Kind("invalid")   // bad user input
)

// Error implements error.
func (k Kind) Error() string {
	return string(k)
}

// Message returns the user-facing message of the first *Error in the chain,
// falling back to err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
