// Package fault classifies the ways a wake cycle can fail.
//
// Every failure that aborts a cycle is wrapped in an *Error carrying one Kind so the
// caller can log it, journal it and decide that the panel must not be refreshed.
package fault

import (
	"errors"
	"fmt"
)

// Kind names a failure class.
type Kind string

const (
	Config            Kind = "config"
	Transport         Kind = "transport"
	MalformedResponse Kind = "malformed_response"
	UnmappedIcon      Kind = "unmapped_icon"
	Display           Kind = "display"
	Unknown           Kind = "unknown"
)

// Error is a classified failure. Op names the operation that failed (e.g. "onecall").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error with a formatted message.
func New(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err. It returns nil when err is nil and leaves an already
// classified error untouched.
func Wrap(err error, kind Kind, op string) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
