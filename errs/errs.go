// Package errs defines the error kinds raised by the tensen core.
//
// All four kinds are sentinel-rooted so callers can use errors.Is against
// the exported values while still getting a descriptive, wrapped message
// from the function that raised it.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel roots. Use errors.Is(err, errs.InvalidIndices) etc. to test kind.
var (
	// InvalidIndices is raised when a tuple-permutation precondition
	// fails, or the same index appears more than twice in a contraction.
	InvalidIndices = errors.New("invalid indices")

	// DimensionMismatch is raised when shapes do not align on a
	// contraction, trace, or assignment boundary.
	DimensionMismatch = errors.New("dimension mismatch")

	// UnknownFlag is raised when a conjugation flag falls outside
	// {plain, conjugate, adjoint}.
	UnknownFlag = errors.New("unknown conjugation flag")

	// InvalidExpression is raised when the compiler encounters a
	// syntactic shape it cannot classify as any recognized form.
	InvalidExpression = errors.New("invalid expression")
)

// wrapped carries a sentinel kind plus a formatted message, so that
// fmt.Errorf("...: %w", kindErr) still satisfies errors.Is(err, kindErr)
// after further wrapping up the call stack.
type wrapped struct {
	kind error
	msg  string
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.kind }

// New returns an error of the given kind with a formatted message,
// satisfying errors.Is(result, kind).
func New(kind error, msg string) error {
	return &wrapped{kind: kind, msg: msg}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind error, format string, args ...interface{}) error {
	return &wrapped{kind: kind, msg: fmt.Sprintf(format, args...)}
}
