// Package services – NotificationService
//
// This file implements the NotificationService, the read-and-acknowledge side
// of the player inbox. Records are written by the notify.Dispatcher; this
// service pages through them, reports unread counts, and flips read flags.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/snapquest/go-snapquest-backend/internal/domain"
	"github.com/snapquest/go-snapquest-backend/internal/repo"
)

// Pagination bounds for the notification inbox.
const (
	// DefaultPageSize is used when the caller does not specify a size.
	DefaultPageSize = 20
	// MaxPageSize caps the page size a caller may request.
	MaxPageSize = 100
)

// NotificationService implements the use-cases around the in-app inbox.
type NotificationService struct {
	// DB is the database handle used for all inbox operations.
	DB *gorm.DB
}

// List returns one page of playerID's notifications, newest first, together
// with the total number of notifications for the player.
//
// page is 1-based; values below 1 are coerced to 1. size is clamped to
// [1, MaxPageSize], with DefaultPageSize substituted for non-positive values.
func (s *NotificationService) List(ctx context.Context, playerID string, page, size int) ([]domain.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	total, err := repo.CountNotifications(ctx, s.DB, playerID)
	if err != nil {
		return nil, 0, err
	}

	items, err := repo.ListNotificationsPage(ctx, s.DB, playerID, (page-1)*size, size)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UnreadCount returns how many of playerID's notifications are still unread.
func (s *NotificationService) UnreadCount(ctx context.Context, playerID string) (int64, error) {
	return repo.CountUnreadNotifications(ctx, s.DB, playerID)
}

// MarkRead flags one notification as read on behalf of playerID.
//
// Returns ErrNotificationNotFound when the notification does not exist or
// belongs to another player; marking an already-read notification is a
// successful no-op.
func (s *NotificationService) MarkRead(ctx context.Context, playerID, notificationID string) error {
	if err := repo.MarkNotificationRead(ctx, s.DB, notificationID, playerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

// MarkAllRead flags every unread notification of playerID as read and
// returns how many rows changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, playerID string) (int64, error) {
	return repo.MarkAllNotificationsRead(ctx, s.DB, playerID)
}
