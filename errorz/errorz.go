// Package errorz holds the error kinds shared by the store, service and gateway layers.
package errorz

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the gateway.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidID
	KindNotFound
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidID:
		return "invalid_id"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "store_unavailable"
	default:
		return "internal"
	}
}

// Error is a tagged error. Message is safe to show to clients for 4xx kinds.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) holds for
// every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidID = &Error{Kind: KindInvalidID, Message: "Invalid question ID."}
	ErrNotFound  = &Error{Kind: KindNotFound, Message: "Question not found."}
)

// Validation builds a KindValidation error with a client-facing message.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a store failure. op names the store operation for logs.
func Unavailable(op string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: op, Err: err}
}

// KindOf reports the kind of err, KindInternal for anything untagged.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-facing message carried by err, or "" if none.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
