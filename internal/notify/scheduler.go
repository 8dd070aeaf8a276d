// The batching scheduler. Given a stream of (photo, recipient, reactor)
// events it guarantees the photo owner hears about reactions without one
// push per reaction: the very first reaction ever seen for a (photo,
// recipient) pair is delivered immediately, everything after that is
// coalesced into a sliding window and delivered as a single aggregated
// notification when the window closes.
//
// The immediate send is forever-once per pair: a photo that has gone through
// many batch cycles still never re-triggers it. This asymmetry is deliberate
// product behavior (one prompt ping, then calm summaries), not an artifact.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBatchWindow is the aggregation window used when the scheduler is
// constructed with a non-positive duration.
const DefaultBatchWindow = 2 * time.Minute

// SendImmediateFunc delivers the one-time first notification for a pair.
// Called asynchronously; errors are logged, never propagated to the caller
// of QueueReaction.
type SendImmediateFunc func() error

// SendBatchedFunc delivers one aggregated notification for a closed window.
// count is the total number of reaction events observed in the window (not
// deduplicated); names holds the distinct reactor display names in first-seen
// order. Called asynchronously; errors are logged and swallowed.
type SendBatchedFunc func(count int, names []string) error

// pairKey identifies one (photo, recipient) aggregation stream.
type pairKey struct {
	photoID     string
	recipientID string
}

// pendingBatch is an in-flight aggregation window. Owned exclusively by the
// scheduler's pending map; no reference escapes.
type pendingBatch struct {
	names   map[string]struct{}
	order   []string // first-seen order, for stable output
	count   int
	timer   Timer
	deliver SendBatchedFunc
}

// Scheduler coalesces reaction events per (photo, recipient) pair.
//
// State per pair moves Unseen → FirstSent (registry entry, immediate send) →
// Accumulating (pending batch with live timer) → back to FirstSent when the
// window flushes. The registry entry never expires for the process lifetime;
// pending batches come and go with every burst.
//
// All public methods are safe for concurrent use. Events for the same pair
// are serialized by the scheduler mutex; events for different pairs are
// independent.
type Scheduler struct {
	window time.Duration
	clock  Clock

	mu      sync.Mutex
	sent    map[string]map[string]struct{} // photoID → recipients already sent the immediate
	pending map[pairKey]*pendingBatch

	// spawn runs dispatch callbacks; defaults to a goroutine. Tests replace
	// it with inline execution for determinism.
	spawn func(func())
}

// NewScheduler constructs a Scheduler flushing batches after window. A
// non-positive window falls back to DefaultBatchWindow; a nil clock falls
// back to the wall clock.
func NewScheduler(window time.Duration, clock Clock) *Scheduler {
	if window <= 0 {
		window = DefaultBatchWindow
	}
	if clock == nil {
		clock = NewClock()
	}
	return &Scheduler{
		window:  window,
		clock:   clock,
		sent:    make(map[string]map[string]struct{}),
		pending: make(map[pairKey]*pendingBatch),
		spawn:   func(f func()) { go f() },
	}
}

// QueueReaction records one reaction by reactorName on recipientID's photo.
//
// First event ever for the pair: sendImmediate is dispatched asynchronously,
// the pair is permanently marked, and a fresh batch opens so that any echo of
// the burst lands in the aggregate. Every later event joins the open batch
// (or defensively opens one) and pushes the flush out by a full window;
// expiry slides, it is not fixed.
//
// Self-reactions are not filtered here; callers exclude the photo owner
// before queueing. Failures of either dispatch path are logged and never
// reach the caller, and a failed sendImmediate still marks the pair as sent
// (at-most-once, best-effort delivery).
func (s *Scheduler) QueueReaction(photoID, recipientID, reactorName string, sendImmediate SendImmediateFunc, sendBatched SendBatchedFunc) {
	key := pairKey{photoID: photoID, recipientID: recipientID}

	s.mu.Lock()
	recips := s.sent[photoID]
	if recips == nil {
		recips = make(map[string]struct{})
		s.sent[photoID] = recips
	}

	if _, already := recips[recipientID]; !already {
		recips[recipientID] = struct{}{}
		s.openBatchLocked(key, reactorName, sendBatched)
		s.mu.Unlock()

		s.spawn(func() {
			if err := sendImmediate(); err != nil {
				log.Warn().Err(err).
					Str("photo_id", photoID).
					Str("recipient_id", recipientID).
					Msg("immediate reaction notification failed")
			}
		})
		return
	}

	b, ok := s.pending[key]
	if !ok {
		// FirstSent with no batch: normally every path opens one, but a
		// flush or cancel may have raced this event in. Open a fresh window
		// without re-sending the immediate.
		s.openBatchLocked(key, reactorName, sendBatched)
		s.mu.Unlock()
		return
	}

	b.timer.Stop()
	if _, dup := b.names[reactorName]; !dup {
		b.names[reactorName] = struct{}{}
		b.order = append(b.order, reactorName)
	}
	b.count++ // repeat reactors still count as events
	b.deliver = sendBatched
	b.timer = s.clock.AfterFunc(s.window, func() { s.flush(key) })
	s.mu.Unlock()
}

// CancelPending stops the timer and drops the pending batch for the pair, if
// any. The registry entry is untouched: the immediate send stays suppressed
// for the pair's lifetime. Not part of the normal UI flow.
func (s *Scheduler) CancelPending(photoID, recipientID string) {
	key := pairKey{photoID: photoID, recipientID: recipientID}

	s.mu.Lock()
	if b, ok := s.pending[key]; ok {
		b.timer.Stop()
		delete(s.pending, key)
	}
	s.mu.Unlock()
}

// PendingCount reports how many aggregation windows are currently open.
// Exposed for diagnostics and tests.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// openBatchLocked creates a new window seeded with one event. Caller holds mu.
func (s *Scheduler) openBatchLocked(key pairKey, reactorName string, deliver SendBatchedFunc) {
	b := &pendingBatch{
		names:   map[string]struct{}{reactorName: {}},
		order:   []string{reactorName},
		count:   1,
		deliver: deliver,
	}
	b.timer = s.clock.AfterFunc(s.window, func() { s.flush(key) })
	s.pending[key] = b
}

// flush closes the window for key: the batch is removed the instant the
// timer fires, then the aggregated send runs asynchronously. A flush for an
// already-removed batch (cancelled, or a stale timer that lost a reset race)
// is a no-op, which makes the routine idempotent.
func (s *Scheduler) flush(key pairKey) {
	s.mu.Lock()
	b, ok := s.pending[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	count := b.count
	names := make([]string, len(b.order))
	copy(names, b.order)
	deliver := b.deliver
	s.mu.Unlock()

	s.spawn(func() {
		if err := deliver(count, names); err != nil {
			log.Warn().Err(err).
				Str("photo_id", key.photoID).
				Str("recipient_id", key.recipientID).
				Int("count", count).
				Msg("batched reaction notification failed")
		}
	})
}
