package service

import (
	"errors"
	"sort"
	"strings"
)

// Kind classifies an error for mapping to a response.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Error is a classified error. Message is safe to show to the caller;
// Err is the underlying cause and is never sent over the wire.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + e.Fields[k]
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinel errors for errors.Is checks.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "Unauthorized"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "Task not found"}
	ErrValidation   = &Error{Kind: KindValidation, Message: "invalid request"}
)

// Unauthorized returns a KindUnauthorized error wrapping cause.
func Unauthorized(cause error) error {
	return &Error{Kind: KindUnauthorized, Message: "Unauthorized", Err: cause}
}

// Validation returns a KindValidation error with a caller-visible message.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Internal returns a KindInternal error with a caller-visible message
// and a hidden cause.
func Internal(msg string, cause error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-visible message of err.
// Unclassified errors get fallback.
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
