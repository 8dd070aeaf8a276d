// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PlayerDevice model (push-token registrations).
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

// RegisterDevice inserts (or refreshes) a push-token registration for
// playerID. Re-registering an existing (player, token) pair touches
// UpdatedAt instead of inserting a duplicate row.
func RegisterDevice(ctx context.Context, db *gorm.DB, playerID, token, platform string) (*domain.PlayerDevice, error) {
	if platform == "" {
		platform = "unknown"
	}
	d := &domain.PlayerDevice{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		PushToken: token,
		Platform:  platform,
		CreatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).Create(d).Error
	if err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			var existing domain.PlayerDevice
			if err := db.WithContext(ctx).
				Where("player_id = ? AND push_token = ?", playerID, token).
				First(&existing).Error; err != nil {
				return nil, err
			}
			if err := db.WithContext(ctx).
				Model(&existing).
				Updates(map[string]any{"platform": platform, "updated_at": time.Now().UTC()}).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}
	return d, nil
}

// ListDeviceTokens returns every push token registered by playerID, newest
// registration first. An empty slice means the player has no reachable
// device. On DB error, it returns the error.
func ListDeviceTokens(ctx context.Context, db *gorm.DB, playerID string) ([]string, error) {
	var rows []domain.PlayerDevice
	if err := db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("updated_at desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.PushToken)
	}
	return out, nil
}

// DeviceTokenSource exposes ListDeviceTokens behind the token-source
// boundary the notification dispatcher consumes.
type DeviceTokenSource struct {
	DB *gorm.DB
}

// ListTokens returns every push token registered by playerID.
func (s DeviceTokenSource) ListTokens(ctx context.Context, playerID string) ([]string, error) {
	return ListDeviceTokens(ctx, s.DB, playerID)
}
