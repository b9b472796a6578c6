// Package ferrors implements the closed error taxonomy from spec.md §7:
// UserError, EnvironmentError, ProtocolError, InvariantError, and
// Cancelled, each wrapping a cause and compatible with errors.As/Is.
// The teacher logs-and-continues rather than classifying errors, so
// there is no direct teacher analog here — this package is new code
// built on the standard library's errors package, which is sufficient
// for a closed, five-member taxonomy (no ecosystem error-taxonomy
// library appeared anywhere in the example pack).
package ferrors

import (
	"errors"
	"fmt"
)

// Kind is one of the five closed error categories spec.md §7 defines.
type Kind int

const (
	// UserError is expected misuse: file not found, no selection to
	// match, already at the first line. Surfaced as a status message,
	// never logged as an error.
	UserError Kind = iota
	// EnvironmentError is an I/O failure: can't read a file, can't
	// spawn a PTY or LSP process. Surfaced with the underlying reason.
	EnvironmentError
	// ProtocolError is a malformed LSP response, a plugin response with
	// an unknown callback id, or a session file from a future version.
	// Logged at warn; the offending operation is aborted.
	ProtocolError
	// InvariantError means a component detected a broken invariant
	// (e.g. a cursor past the buffer end). Logged at error; the editor
	// recovers by clamping. Fatal in debug builds.
	InvariantError
	// Cancelled means an async operation was abandoned before it
	// completed; delivered as a response error so promises resolve.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case UserError:
		return "UserError"
	case EnvironmentError:
		return "EnvironmentError"
	case ProtocolError:
		return "ProtocolError"
	case InvariantError:
		return "InvariantError"
	case Cancelled:
		return "Cancelled"
	default:
		return "UnknownError"
	}
}

// Error wraps a cause with a Kind, so callers can branch on category
// via errors.As while still rendering the underlying message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns a Kind-tagged error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags cause with kind, preserving it for errors.As/errors.Is and
// errors.Unwrap chains.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is (or wraps) a Kind-tagged error of kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// ShouldLog reports whether a logger should emit this error, per
// spec.md §7's propagation policy: UserError never logs (it is a
// status message only); everything else does.
func ShouldLog(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind != UserError
	}
	return true
}
