// Package apperr defines the error kinds returned by the collection and
// social-graph services and carried up to the HTTP layer.
//
// Kinds:
//   - NotFound: a referenced document is missing.
//   - SyncFailed: a multi-document write was rejected; nothing was applied.
//   - InvalidOperation: the request is malformed or not allowed in the
//     current state (self-follow, empty field, decided request). Raised
//     before any store call.
//   - Unauthenticated: the operation needs a signed-in user.
//   - PermissionDenied: the user is signed in but may not do this.
//   - Internal: anything else.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	Internal Kind = iota
	NotFound
	SyncFailed
	InvalidOperation
	Unauthenticated
	PermissionDenied
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case SyncFailed:
		return "sync_failed"
	case InvalidOperation:
		return "invalid_operation"
	case Unauthenticated:
		return "unauthenticated"
	case PermissionDenied:
		return "permission_denied"
	default:
		return "internal"
	}
}

// Error is a classified error. Msg is safe to show to clients; Err is the
// underlying cause and is only logged.
type Error struct {
	Kind Kind
	Op   string // operation, e.g. "countersync.Save"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.msg(), e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.msg())
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.msg(), e.Err)
	default:
		return e.msg()
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) msg() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.String()
}

// Message returns the client-safe message.
func (e *Error) Message() string { return e.msg() }

// New returns an Error of the given kind with no cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err. A nil err returns nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf classifies err with a client-safe message. A nil err returns nil.
func Wrapf(kind Kind, op string, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// Internal if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns a client-safe message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return "internal error"
}
