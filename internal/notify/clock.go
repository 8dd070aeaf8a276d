// Package notify implements reaction notification delivery: the batching
// scheduler that collapses bursts of reactions into one push per window, the
// dispatch facade that writes the durable in-app record and fires the push,
// and the summary text composition.
package notify

import "time"

// Clock schedules deferred callbacks. The production implementation wraps
// time.AfterFunc; tests substitute a manual clock to drive batch windows
// deterministically instead of sleeping.
type Clock interface {
	// AfterFunc runs f in its own goroutine after d elapses and returns a
	// handle that can cancel the pending call.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable handle to a scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call was
	// still pending; callers that treat a fired-but-not-yet-run callback as
	// harmless may ignore the result.
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewClock returns the wall-clock backed Clock used in production.
func NewClock() Clock { return realClock{} }
