package ratelimit

import (
	"testing"
	"time"
)

// fakeNow installs a controllable time source on a limiter and returns an
// advance function.
func fakeNow(l *Limiter) func(d time.Duration) {
	cur := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return cur }
	return func(d time.Duration) { cur = cur.Add(d) }
}

func TestNew_CoercesBadConfig(t *testing.T) {
	l := New(0, 0)
	if l.maxRequests != 1 {
		t.Fatalf("maxRequests coercion failed, got %d", l.maxRequests)
	}
	if l.window != time.Second {
		t.Fatalf("window coercion failed, got %v", l.window)
	}
}

func TestTryAcquire_AdmitsExactlyMaxWithinWindow(t *testing.T) {
	l := New(3, time.Minute)
	advance := fakeNow(l)

	for i := 0; i < 3; i++ {
		if !l.TryAcquire() {
			t.Fatalf("acquire %d should be admitted", i)
		}
		advance(time.Second)
	}
	if l.TryAcquire() {
		t.Fatalf("4th acquire within window should be rejected")
	}
	// Rejections record nothing: the reset time must not move.
	before := l.TimeUntilReset()
	if l.TryAcquire() {
		t.Fatalf("still rejected")
	}
	if got := l.TimeUntilReset(); got != before {
		t.Fatalf("rejection moved reset time: %v -> %v", before, got)
	}
}

func TestTryAcquire_AdmissionResumesWhenOldestAgesOut(t *testing.T) {
	l := New(2, time.Minute)
	advance := fakeNow(l)

	if !l.TryAcquire() {
		t.Fatalf("first acquire")
	}
	advance(30 * time.Second)
	if !l.TryAcquire() {
		t.Fatalf("second acquire")
	}
	if l.TryAcquire() {
		t.Fatalf("window full")
	}

	// 31s later the first admission (60s old +1s) has aged out; one slot frees.
	advance(31 * time.Second)
	if !l.TryAcquire() {
		t.Fatalf("expected admission after oldest aged out")
	}
	if l.TryAcquire() {
		t.Fatalf("only one slot should have freed")
	}
}

func TestTimeUntilReset(t *testing.T) {
	l := New(1, time.Minute)
	advance := fakeNow(l)

	if got := l.TimeUntilReset(); got != 0 {
		t.Fatalf("empty limiter should report 0, got %v", got)
	}

	if !l.TryAcquire() {
		t.Fatalf("acquire")
	}
	if got := l.TimeUntilReset(); got != time.Minute {
		t.Fatalf("fresh admission should report full window, got %v", got)
	}

	// Non-increasing as time advances.
	advance(20 * time.Second)
	if got := l.TimeUntilReset(); got != 40*time.Second {
		t.Fatalf("expected 40s, got %v", got)
	}
	advance(40 * time.Second)
	if got := l.TimeUntilReset(); got != 0 {
		t.Fatalf("expected 0 once aged out, got %v", got)
	}
	// Reaching 0 coincides with admission resuming.
	if !l.TryAcquire() {
		t.Fatalf("admission should resume at reset")
	}
}

func TestReset_ClearsWindow(t *testing.T) {
	l := New(1, time.Minute)
	fakeNow(l)

	if !l.TryAcquire() {
		t.Fatalf("acquire")
	}
	if l.TryAcquire() {
		t.Fatalf("full")
	}
	l.Reset()
	if got := l.TimeUntilReset(); got != 0 {
		t.Fatalf("reset should clear timestamps, got %v", got)
	}
	if !l.TryAcquire() {
		t.Fatalf("acquire after reset")
	}
}

func TestRegistry_PerKeyIsolationAndReuse(t *testing.T) {
	r := NewRegistry(1, time.Minute)

	a := r.Get("player:a")
	b := r.Get("player:b")
	if a == b {
		t.Fatalf("keys must get independent limiters")
	}
	if got := r.Get("player:a"); got != a {
		t.Fatalf("expected same limiter instance to be reused")
	}

	if !a.TryAcquire() {
		t.Fatalf("a should admit")
	}
	if !b.TryAcquire() {
		t.Fatalf("b's window is independent of a's")
	}
}

func TestRegistry_EvictsIdleEntries(t *testing.T) {
	r := NewRegistry(1, time.Minute)
	r.ttl = time.Nanosecond

	// Seed an old entry and force the cleanup threshold.
	r.mu.Lock()
	r.limiters["old"] = &registryEntry{
		limiter:  New(1, time.Minute),
		lastSeen: time.Now().Add(-time.Hour),
	}
	r.lookupN = 4999
	r.mu.Unlock()

	_ = r.Get("new")

	r.mu.Lock()
	_, existsOld := r.limiters["old"]
	_, existsNew := r.limiters["new"]
	r.mu.Unlock()

	if existsOld {
		t.Fatalf("expected 'old' entry to be evicted by opportunistic GC")
	}
	if !existsNew {
		t.Fatalf("expected 'new' entry to be created")
	}
}
