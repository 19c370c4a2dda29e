// Package spatialerr defines the error taxonomy shared by every spatial3d
// component: sentinel values meant to be wrapped with fmt.Errorf("...: %w", ...)
// at the point of detection, so that callers can test with errors.Is.
package spatialerr

import (
	"errors"
	"fmt"
)

var (
	// InvalidInput covers negative coordinates, NaN, level > Lmax, k <= 0,
	// distance < 0, and an empty point set where one is required.
	InvalidInput = errors.New("invalid input")

	// Conflict is returned when an insert names an entity id that already
	// exists.
	Conflict = errors.New("conflict")

	// NotFound is returned when update or remove names an entity id that
	// does not exist.
	NotFound = errors.New("not found")

	// Overflow is returned when a TM-index computation would exceed
	// level 21.
	Overflow = errors.New("overflow")

	// Cancelled is returned when a deadline or cancellation token fires
	// mid-operation.
	Cancelled = errors.New("cancelled")

	// Internal marks an invariant violation. Debug builds may choose to
	// panic on it instead of returning it (see PanicOnInternal); release
	// builds must always surface it as a plain error.
	Internal = errors.New("internal error")
)

// PanicOnInternal, when true, makes New(Internal, ...) panic immediately
// instead of returning an error. Intended for debug builds / tests that want
// invariant violations to fail loudly and immediately at the call site.
var PanicOnInternal = false

// New wraps one of the sentinel values above with a detail message.
func New(sentinel error, detail string) error {
	if sentinel == Internal && PanicOnInternal {
		panic(&wrapped{sentinel: sentinel, detail: detail})
	}
	return &wrapped{sentinel: sentinel, detail: detail}
}

// Newf is like New but with fmt.Sprintf-style formatting.
func Newf(sentinel error, format string, args ...any) error {
	return New(sentinel, fmt.Sprintf(format, args...))
}

type wrapped struct {
	sentinel error
	detail   string
}

func (w *wrapped) Error() string { return w.sentinel.Error() + ": " + w.detail }
func (w *wrapped) Unwrap() error { return w.sentinel }
