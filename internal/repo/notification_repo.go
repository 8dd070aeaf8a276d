// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Notification model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a notification is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/snapquest/go-snapquest-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateNotification inserts an unread in-app notification row for playerID.
// The notification ID is a randomly generated UUID (string), and CreatedAt is
// set to UTC. The row is durable before this function returns; push delivery
// is a separate, best-effort concern handled by the dispatcher.
//
// On success, it returns the persisted Notification. On failure, it returns a
// DB error.
func CreateNotification(ctx context.Context, db *gorm.DB, playerID, photoID, typ, title, body string) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		PhotoID:   photoID,
		Type:      typ,
		Title:     title,
		Body:      body,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// CountNotifications returns the total number of notifications for playerID.
// On DB error, it returns the error.
func CountNotifications(ctx context.Context, db *gorm.DB, playerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("player_id = ?", playerID).
		Count(&total).Error
	return total, err
}

// CountUnreadNotifications returns the number of unread notifications for
// playerID, used for the inbox badge. On DB error, it returns the error.
func CountUnreadNotifications(ctx context.Context, db *gorm.DB, playerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("player_id = ? AND read = ?", playerID, false).
		Count(&total).Error
	return total, err
}

// ListNotificationsPage returns a paginated slice of notifications for
// playerID, ordered by creation time descending (newest first). Use
// CountNotifications to obtain the total for pagination metadata. On DB
// error, it returns the error.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListNotificationsPage(ctx context.Context, db *gorm.DB, playerID string, offset, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkNotificationRead flips the read flag for a notification identified by
// id and owned by playerID. If no rows are affected (record missing or owned
// by someone else), it returns ErrNotFound. On DB error, the raw error is
// returned. Marking an already-read notification succeeds and is a no-op.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, id, playerID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND player_id = ?", id, playerID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish "already read" (success) from "missing" (not found).
		var count int64
		if err := db.WithContext(ctx).
			Model(&domain.Notification{}).
			Where("id = ? AND player_id = ?", id, playerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification for playerID as
// read and returns how many rows changed. On DB error, it returns the error.
func MarkAllNotificationsRead(ctx context.Context, db *gorm.DB, playerID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("player_id = ? AND read = ?", playerID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

// NotificationsStats returns aggregate metadata for a player's notifications:
// the total number of rows and the maximum UpdatedAt timestamp among those
// rows. Used for conditional responses (ETag generation) in the HTTP layer.
// When the player has no notifications, the returned count is 0 and
// maxUpdatedAt is nil.
func NotificationsStats(ctx context.Context, db *gorm.DB, playerID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Notification{}).Where("player_id = ?", playerID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
