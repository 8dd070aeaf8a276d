package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/snapquest/go-snapquest-backend/internal/domain"
)

// ErrDuplicate means a record already exists for the (player, photo, key)
// tuple; the caller should treat the submission as a retry.
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns the non-expired record for the tuple or
// ErrNotFound. Records past expires_at are invisible here; the key may be
// reused once its TTL lapses.
func GetIdempotency(ctx context.Context, db *gorm.DB, playerID, photoID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(photoID) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("player_id = ? AND photo_id = ? AND key = ? AND expires_at > ?", playerID, photoID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateIdempotency inserts a record valid for ttl from now. A unique
// violation on the tuple comes back as ErrDuplicate.
func CreateIdempotency(ctx context.Context, db *gorm.DB, playerID, photoID, key, notificationID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:             uuid.NewString(),
		PlayerID:       playerID,
		PhotoID:        photoID,
		Key:            key,
		NotificationID: notificationID,
		Status:         status,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// isUniqueViolation matches both GORM's translated error and the plain-text
// messages the pure Go SQLite driver produces for UNIQUE failures.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
