// Package services – ReactionService
//
// This file implements the ReactionService, which governs how players toggle
// reactions on event photos. A toggle flips the player's local mark, adjusts
// the authoritative per-photo aggregate, and, when a reaction is being added
// to somebody else's photo, hands the event to the batching scheduler so the
// owner is notified without one push per tap. Service-level errors
// (ErrInvalidReaction, ErrRateLimited) are returned for predictable cases so
// handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/snapquest/go-snapquest-backend/internal/domain"
	"github.com/snapquest/go-snapquest-backend/internal/notify"
	"github.com/snapquest/go-snapquest-backend/internal/ratelimit"
	"github.com/snapquest/go-snapquest-backend/internal/reactions"
	"github.com/snapquest/go-snapquest-backend/internal/repo"
)

// gormBlobStore adapts the repo blob functions to the reactions.BlobStore
// boundary.
type gormBlobStore struct {
	db *gorm.DB
}

func (s gormBlobStore) GetBlob(ctx context.Context, key string) (string, error) {
	return repo.GetBlob(ctx, s.db, key)
}

func (s gormBlobStore) PutBlob(ctx context.Context, key, value string) error {
	return repo.PutBlob(ctx, s.db, key, value)
}

// ToggleResult describes the outcome of one reaction toggle.
type ToggleResult struct {
	// Reacting is the player's new state for (photo, kind): true when the
	// toggle added the reaction, false when it removed it.
	Reacting bool `json:"reacting"`

	// Count is the photo's aggregate count for the toggled kind after the
	// adjustment.
	Count int64 `json:"count"`
}

// PhotoReactionView is the read-side payload for one photo: aggregate counts
// per kind plus the acting player's own marks.
type PhotoReactionView struct {
	Counts map[domain.ReactionKind]int64 `json:"counts"`
	Mine   domain.ReactionMarks          `json:"mine"`
}

// ReactionService implements the use-cases around photo reactions.
//
// Toggle stores are materialized lazily per player and hydrated from the
// durable blob on first use; they live for the process lifetime. Scheduler
// and Dispatcher may be nil, in which case toggles still work but owner
// notifications are skipped.
type ReactionService struct {
	// DB is the database handle used for aggregates and blob persistence.
	DB *gorm.DB

	// Scheduler batches owner notifications per (photo, recipient) pair.
	Scheduler *notify.Scheduler

	// Dispatcher creates the in-app record and fans out the push.
	Dispatcher *notify.Dispatcher

	// Limits enforces the per-player sliding-window reaction budget.
	// Nil disables rate limiting.
	Limits *ratelimit.Registry

	mu     sync.Mutex
	stores map[string]*reactions.ToggleStore
}

// NewReactionService constructs a ReactionService over the given collaborators.
func NewReactionService(db *gorm.DB, scheduler *notify.Scheduler, dispatcher *notify.Dispatcher, limits *ratelimit.Registry) *ReactionService {
	return &ReactionService{
		DB:         db,
		Scheduler:  scheduler,
		Dispatcher: dispatcher,
		Limits:     limits,
		stores:     make(map[string]*reactions.ToggleStore),
	}
}

// ToggleReaction flips playerID's reaction of the given kind on photoID.
//
// Semantics:
//   - kind must be one of heart, fire, hundred; otherwise ErrInvalidReaction.
//   - The player's sliding-window budget is consulted first; when exhausted
//     the call returns ErrRateLimited without touching any state.
//   - The local mark flips synchronously and its blob persists in the
//     background; the photo_reactions aggregate is adjusted by ±1 (floored
//     at zero) in the same call.
//   - When the toggle adds a reaction and ownerID names a different player,
//     the event is queued for the owner: first reaction ever for the
//     (photo, owner) pair notifies immediately, later ones aggregate into
//     the sliding batch window. Removals and self-reactions never notify.
//
// Errors: ErrInvalidReaction, ErrRateLimited, or the underlying DB error
// from the aggregate adjustment. Notification delivery failures never
// surface here.
func (s *ReactionService) ToggleReaction(ctx context.Context, playerID, playerName, photoID, ownerID string, kind domain.ReactionKind) (*ToggleResult, error) {
	if !domain.ValidReactionKind(kind) {
		return nil, ErrInvalidReaction
	}
	if s.Limits != nil && !s.Limits.Get(playerID).TryAcquire() {
		return nil, ErrRateLimited
	}

	store := s.storeFor(ctx, playerID)
	reacting := store.Toggle(photoID, kind)

	delta := int64(-1)
	if reacting {
		delta = 1
	}
	count, err := repo.AdjustReactionCount(ctx, s.DB, photoID, kind, delta)
	if err != nil {
		// Roll the local mark back so cache and aggregate stay aligned.
		store.Toggle(photoID, kind)
		return nil, err
	}

	if reacting && ownerID != "" && ownerID != playerID {
		s.queueOwnerNotification(photoID, ownerID, playerName)
	}

	return &ToggleResult{Reacting: reacting, Count: count}, nil
}

// PhotoReactions returns the aggregate counts for photoID together with
// playerID's own marks.
func (s *ReactionService) PhotoReactions(ctx context.Context, playerID, photoID string) (*PhotoReactionView, error) {
	counts, err := repo.GetReactionCounts(ctx, s.DB, photoID)
	if err != nil {
		return nil, err
	}

	store := s.storeFor(ctx, playerID)
	var mine domain.ReactionMarks
	for _, kind := range domain.ReactionKinds() {
		mine.Set(kind, store.HasReacted(photoID, kind))
	}
	return &PhotoReactionView{Counts: counts, Mine: mine}, nil
}

// RetryAfter reports how long playerID must wait before their reaction
// budget admits another request. Zero when the budget is not exhausted or
// rate limiting is disabled.
func (s *ReactionService) RetryAfter(playerID string) time.Duration {
	if s.Limits == nil {
		return 0
	}
	return s.Limits.Get(playerID).TimeUntilReset()
}

// storeFor returns the hydrated toggle store for playerID, creating it on
// first use.
func (s *ReactionService) storeFor(ctx context.Context, playerID string) *reactions.ToggleStore {
	s.mu.Lock()
	store, ok := s.stores[playerID]
	if !ok {
		store = reactions.NewToggleStore(gormBlobStore{db: s.DB}, "player:"+playerID+":reactions")
		s.stores[playerID] = store
	}
	s.mu.Unlock()

	store.Load(ctx)
	return store
}

// queueOwnerNotification hands one reaction event to the scheduler. The
// dispatch closures carry their own background context: delivery happens
// after the triggering request has returned.
func (s *ReactionService) queueOwnerNotification(photoID, ownerID, reactorName string) {
	if s.Scheduler == nil || s.Dispatcher == nil {
		return
	}

	meta := map[string]string{"photo_id": photoID}
	sendImmediate := func() error {
		return s.Dispatcher.Immediate(context.Background(), ownerID, photoID,
			"New reaction", notify.ImmediateBody(reactorName), meta)
	}
	sendBatched := func(count int, names []string) error {
		return s.Dispatcher.Batched(context.Background(), ownerID, photoID,
			notify.BatchTitle(count), notify.BatchBody(names), meta)
	}
	s.Scheduler.QueueReaction(photoID, ownerID, reactorName, sendImmediate, sendBatched)
}
