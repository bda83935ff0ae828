// Public domain.

package moc

import (
	"errors"
	"strconv"
)

// Kind is a category of error for programmatic handling.  Callers should
// branch on Kind rather than match error strings.
type Kind string

const (
	// KindInvalidInput covers malformed probability maps, out of range
	// probability levels and cells outside the sphere or finer than
	// the resolution of a coverage map.
	KindInvalidInput Kind = "InvalidInput"
	// KindResolutionMismatch is an operation on coverage maps with
	// different maximum orders.  Widen one of them first.
	KindResolutionMismatch Kind = "ResolutionMismatch"
	// KindSerialization is a corrupt or truncated encoding.
	KindSerialization Kind = "Serialization"
)

// Error is the structured error type of this module.
//
// Op names the operation that failed, as "moc.Union" or "contour.NewDense".
// Message is for humans.  Cause, if not nil, is the underlying error.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	s := e.Op + ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsKind reports whether err is or wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

func invalid(op, msg string) error {
	return &Error{Kind: KindInvalidInput, Op: op, Message: msg}
}

func mismatch(op string, a, b int) error {
	return &Error{
		Kind:    KindResolutionMismatch,
		Op:      op,
		Message: "max order " + strconv.Itoa(a) + " vs " + strconv.Itoa(b),
	}
}

func corrupt(op, msg string, cause error) error {
	return &Error{Kind: KindSerialization, Op: op, Message: msg, Cause: cause}
}
