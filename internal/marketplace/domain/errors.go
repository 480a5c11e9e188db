package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an Error so transports can map it without string matching.
type Kind string

const (
	KindNotAuthenticated       Kind = "not_authenticated"
	KindForbidden              Kind = "forbidden"
	KindNotFound               Kind = "not_found"
	KindEmptyCart              Kind = "empty_cart"
	KindMultiChefOrder         Kind = "multi_chef_order"
	KindValidation             Kind = "validation_error"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindConflict               Kind = "conflict"
	KindPersistence            Kind = "persistence_failure"
)

// Sentinels for errors.Is. Every *Error of a given kind matches its sentinel.
var (
	ErrNotAuthenticated       = &Error{Kind: KindNotAuthenticated}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrEmptyCart              = &Error{Kind: KindEmptyCart}
	ErrMultiChefOrder         = &Error{Kind: KindMultiChefOrder}
	ErrValidation             = &Error{Kind: KindValidation}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ErrConflict               = &Error{Kind: KindConflict}
	ErrPersistence            = &Error{Kind: KindPersistence}
)

// Error carries a failure kind, the operation that failed and a human-readable
// message. Err holds the underlying cause when there is one.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same kind, so callers can compare against the
// package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// E builds an *Error with a formatted message.
func E(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage I/O error. A nil err yields nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindPersistence, Op: op, Message: "storage failure", Err: err}
}

// KindOf reports the kind of err, or KindPersistence for anything that is not
// an *Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindPersistence
}

// MessageOf returns the caller-facing message of err without the op prefix.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		if de.Message != "" {
			return de.Message
		}
		if de.Err != nil {
			return de.Err.Error()
		}
		return string(de.Kind)
	}
	return err.Error()
}
