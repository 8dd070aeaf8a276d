// Per-key limiter registry. Keys are typically player identifiers; each key
// gets its own independent sliding window.
package ratelimit

import (
	"sync"
	"time"
)

// Registry hands out one Limiter per key, creating them on demand. Idle
// limiters (empty window, not touched for the TTL) are evicted
// opportunistically during lookups to keep memory bounded.
//
// This type is safe for concurrent use.
type Registry struct {
	maxRequests int
	window      time.Duration

	mu       sync.Mutex
	limiters map[string]*registryEntry
	ttl      time.Duration
	lookupN  uint64

	now func() time.Time
}

type registryEntry struct {
	limiter  *Limiter
	lastSeen time.Time
}

// NewRegistry constructs a Registry whose limiters all share the given
// maxRequests/window configuration.
func NewRegistry(maxRequests int, window time.Duration) *Registry {
	return &Registry{
		maxRequests: maxRequests,
		window:      window,
		limiters:    make(map[string]*registryEntry),
		ttl:         10 * time.Minute, // evict idle entries after TTL
		now:         time.Now,
	}
}

// Get returns (and creates if absent) the limiter for key.
// It also performs opportunistic GC of idle entries after ~5000 lookups.
//
// IMPORTANT: Run GC *before* touching the requested entry so an "old" limiter
// can be evicted even when it's the one being fetched.
func (r *Registry) Get(key string) *Limiter {
	now := r.now()

	r.mu.Lock()
	r.lookupN++
	if r.lookupN >= 5000 {
		for k, e := range r.limiters {
			if now.Sub(e.lastSeen) >= r.ttl {
				delete(r.limiters, k)
			}
		}
		r.lookupN = 0
	}

	if e, ok := r.limiters[key]; ok {
		e.lastSeen = now
		lim := e.limiter
		r.mu.Unlock()
		return lim
	}

	lim := New(r.maxRequests, r.window)
	r.limiters[key] = &registryEntry{limiter: lim, lastSeen: now}
	r.mu.Unlock()
	return lim
}
