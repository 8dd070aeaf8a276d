package ratelimit

import (
	"testing"
	"time"
)

func TestRegistry_SameKeySameLimiter(t *testing.T) {
	r := NewRegistry(5, time.Minute)

	a := r.Get("p1")
	b := r.Get("p1")
	if a != b {
		t.Fatalf("expected the same limiter instance for the same key")
	}
}

func TestRegistry_KeysAreIndependent(t *testing.T) {
	r := NewRegistry(1, time.Minute)

	if !r.Get("p1").TryAcquire() {
		t.Fatalf("p1 first acquire should be admitted")
	}
	if r.Get("p1").TryAcquire() {
		t.Fatalf("p1 second acquire should be rejected")
	}
	// p1 being exhausted must not affect p2.
	if !r.Get("p2").TryAcquire() {
		t.Fatalf("p2 should have its own window")
	}
}

func TestRegistry_EvictsIdleEntriesFakeClock(t *testing.T) {
	r := NewRegistry(5, time.Minute)
	cur := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return cur }

	old := r.Get("stale")

	// Pass the TTL and force the opportunistic GC to run on the next lookup.
	cur = cur.Add(r.ttl + time.Second)
	r.mu.Lock()
	r.lookupN = 5000
	r.mu.Unlock()

	fresh := r.Get("stale")
	if fresh == old {
		t.Fatalf("expected stale limiter to be evicted and recreated")
	}

	// The recreated entry was just touched; it must survive a non-GC lookup.
	if again := r.Get("stale"); again != fresh {
		t.Fatalf("fresh limiter evicted too early")
	}
}
