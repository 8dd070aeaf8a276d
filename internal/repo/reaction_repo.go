// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PhotoReaction aggregate and the ReactionBlob key/value backing store.
//
// The aggregate rows are the authoritative reaction counts; the blob rows are
// a per-player cache of "which kinds have I toggled" that the client persists
// fire-and-forget. The two deliberately have different consistency bars:
// aggregate adjustments run inside service transactions, blob writes are
// last-writer-wins whole-value upserts.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/snapquest/go-snapquest-backend/internal/domain"
)

// AdjustReactionCount applies delta (+1 on add, -1 on remove) to the
// aggregate count for (photoID, kind), creating the row on first use.
// The count never drops below zero: a remove racing a missing row clamps
// rather than erroring, since the client cache and the aggregate may
// transiently disagree.
//
// Returns the new count. On DB error, the raw error is returned.
func AdjustReactionCount(ctx context.Context, db *gorm.DB, photoID string, kind domain.ReactionKind, delta int64) (int64, error) {
	var r domain.PhotoReaction
	err := db.WithContext(ctx).
		Where("photo_id = ? AND kind = ?", photoID, string(kind)).
		First(&r).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		count := delta
		if count < 0 {
			count = 0
		}
		r = domain.PhotoReaction{
			ID:        uuid.NewString(),
			PhotoID:   photoID,
			Kind:      string(kind),
			Count:     count,
			CreatedAt: time.Now().UTC(),
		}
		if err := db.WithContext(ctx).Create(&r).Error; err != nil {
			return 0, err
		}
		return r.Count, nil
	case err != nil:
		return 0, err
	}

	newCount := r.Count + delta
	if newCount < 0 {
		newCount = 0
	}
	if err := db.WithContext(ctx).
		Model(&domain.PhotoReaction{}).
		Where("id = ?", r.ID).
		Update("count", newCount).Error; err != nil {
		return 0, err
	}
	return newCount, nil
}

// GetReactionCounts returns the aggregate count per kind for photoID. Kinds
// with no row are simply absent from the map. On DB error, it returns the
// error.
func GetReactionCounts(ctx context.Context, db *gorm.DB, photoID string) (map[domain.ReactionKind]int64, error) {
	var rows []domain.PhotoReaction
	if err := db.WithContext(ctx).
		Where("photo_id = ?", photoID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.ReactionKind]int64, len(rows))
	for _, r := range rows {
		out[domain.ReactionKind(r.Kind)] = r.Count
	}
	return out, nil
}

// GetBlob returns the opaque value stored under key, or ErrNotFound when the
// key has never been written.
func GetBlob(ctx context.Context, db *gorm.DB, key string) (string, error) {
	var b domain.ReactionBlob
	if err := db.WithContext(ctx).Where("key = ?", key).First(&b).Error; err != nil {
		return "", err
	}
	return b.Value, nil
}

// PutBlob upserts the full value under key. The whole blob is replaced on
// every write; callers serialize the current state, never a diff.
func PutBlob(ctx context.Context, db *gorm.DB, key, value string) error {
	b := domain.ReactionBlob{Key: key, Value: value}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&b).Error
}
