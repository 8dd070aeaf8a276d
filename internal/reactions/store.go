// Package reactions implements the local reaction mark cache: per-photo,
// per-kind booleans recording what the acting player has toggled.
//
// The cache is the single source of truth after the first Load; the durable
// blob behind it exists only to survive restarts. Persistence is
// fire-and-forget: a toggle returns the new state synchronously and writes
// the whole cache in the background, logging (never surfacing) failures.
// This is a cache of "my own reaction history" used to drive optimistic UI;
// the photo_reactions aggregate remains authoritative for counts.
package reactions

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/snapquest/go-snapquest-backend/internal/domain"
)

// BlobStore is the durable key/value boundary the toggle store persists
// through. Implementations must treat the value as opaque.
type BlobStore interface {
	GetBlob(ctx context.Context, key string) (string, error)
	PutBlob(ctx context.Context, key, value string) error
}

// ToggleStore answers "has this player marked reaction K on photo P" and
// provides an involutive toggle that flips and persists that boolean.
//
// Load must be called before reads; it is idempotent and fails soft. All
// methods are safe for concurrent use.
type ToggleStore struct {
	store BlobStore
	key   string

	mu     sync.Mutex
	loaded bool
	marks  map[string]domain.ReactionMarks

	// persist is a seam for tests; defaults to the background write.
	persist func(value string)
}

// NewToggleStore constructs a ToggleStore for one player. key scopes the
// durable blob (e.g. "player:<id>:reactions").
func NewToggleStore(store BlobStore, key string) *ToggleStore {
	s := &ToggleStore{
		store: store,
		key:   key,
		marks: make(map[string]domain.ReactionMarks),
	}
	s.persist = s.persistAsync
	return s
}

// Load populates the in-memory cache from durable storage exactly once per
// process; subsequent calls are no-ops. On any read or parse error the cache
// is initialized empty rather than returning an error, since a missing blob is the
// normal first-run case.
func (s *ToggleStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return
	}
	s.loaded = true

	raw, err := s.store.GetBlob(ctx, s.key)
	if err != nil {
		return
	}
	var parsed map[string]domain.ReactionMarks
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("reaction blob unreadable, starting empty")
		return
	}
	if parsed != nil {
		s.marks = parsed
	}
}

// HasReacted reports whether kind is marked for photoID. Unknown photos and
// kinds read as false. Callers must ensure Load has happened; HasReacted
// never triggers it implicitly.
func (s *ToggleStore) HasReacted(photoID string, kind domain.ReactionKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marks[photoID].Get(kind)
}

// Toggle flips the mark for (photoID, kind) and returns the new state
// ("isAdding"). The flip is applied to the cache synchronously; the full
// cache is then serialized and written to durable storage in the background.
// Persistence failures are logged and swallowed. Back-to-back toggles may
// race at the storage layer: the last in-memory writer wins, and that is
// what ends up persisted since every write serializes the current full
// cache.
func (s *ToggleStore) Toggle(photoID string, kind domain.ReactionKind) bool {
	s.mu.Lock()

	m := s.marks[photoID]
	next := !m.Get(kind)
	m.Set(kind, next)
	if m.Empty() {
		delete(s.marks, photoID) // keep the blob sparse
	} else {
		s.marks[photoID] = m
	}

	blob, err := json.Marshal(s.marks)
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("key", s.key).Msg("serialize reaction marks")
		return next
	}
	s.persist(string(blob))
	return next
}

// persistAsync writes the serialized cache without blocking the caller.
func (s *ToggleStore) persistAsync(value string) {
	go func() {
		if err := s.store.PutBlob(context.Background(), s.key, value); err != nil {
			log.Warn().Err(err).Str("key", s.key).Msg("persist reaction marks")
		}
	}()
}
