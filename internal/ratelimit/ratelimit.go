// Package ratelimit implements a small, in-memory, sliding-window admission
// controller used to throttle user-initiated actions (uploads, reactions,
// notification-triggering submissions) within a session.
//
// Unlike a token bucket, the sliding window keeps the exact timestamps of
// admitted actions, so it can answer "when does the oldest admission age
// out", the value surfaced to the UI as a retry hint.
//
// Notes:
//   - State is process-local and resets on restart. This is intentional: the
//     limiter curbs UI spam within a session, it is not a security control.
//   - The limiter is safe for concurrent use.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter admits at most maxRequests actions within any sliding window of the
// configured duration. Construct with New.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	admitted    []time.Time

	// now is the time source; replaced in tests to drive the window
	// deterministically.
	now func() time.Time
}

// New constructs a Limiter that admits up to maxRequests actions per window.
// Values of maxRequests <= 0 are coerced to 1; windows <= 0 are coerced to
// one second.
func New(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// TryAcquire prunes timestamps that have left the window, then admits the
// action if capacity remains. Admitted actions record the current time;
// rejected actions record nothing.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.admitted) >= l.maxRequests {
		return false
	}
	l.admitted = append(l.admitted, now)
	return true
}

// TimeUntilReset returns how long until the oldest recorded admission exits
// the window, i.e. when the next TryAcquire can succeed after a rejection.
// It returns 0 when nothing is recorded. Purely informational, for UI
// messaging.
func (l *Limiter) TimeUntilReset() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.admitted) == 0 {
		return 0
	}
	remaining := l.admitted[0].Add(l.window).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset clears all recorded admissions.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.admitted = l.admitted[:0]
}

// prune drops timestamps older than now-window. Caller must hold mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.admitted) && !l.admitted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[i:]...)
	}
}
