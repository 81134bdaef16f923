// Package mapvarerr defines the single error type surfaced by every stage of
// an estimation run. Each failure carries one of the sentinel kinds below so
// callers can branch with errors.Is without parsing messages.
package mapvarerr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMode          = errors.New("invalid generation mode")
	ErrConflictingArguments = errors.New("conflicting arguments")
	ErrInvalidInitPolicy    = errors.New("invalid initialization policy")
	ErrCyclicDependency     = errors.New("cyclic dependency")
	ErrShapeMismatch        = errors.New("shape mismatch")
	ErrSingularHessian      = errors.New("singular hessian")
	ErrInvalidGraph         = errors.New("invalid model graph")
	ErrMissingValue         = errors.New("missing value")
)

// Error wraps an estimation failure with its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// New returns an Error of the given kind with a formatted message.
func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
