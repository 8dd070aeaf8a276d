// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency represents a recorded result of a previously processed reaction
// submission, keyed by (player_id, photo_id, key). Mobile clients fire the
// same toggle twice on an enthusiastic double-tap; replaying the stored result
// keeps the aggregate count from drifting.
type Idempotency struct {
	ID             string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	PlayerID       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_player_photo_key,priority:1"`
	PhotoID        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_player_photo_key,priority:2"`
	Key            string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_player_photo_key,priority:3"`
	NotificationID string    `gorm:"type:TEXT NOT NULL"`
	Status         int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt      time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt      time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName keeps the table singular; GORM would otherwise pluralize it.
func (Idempotency) TableName() string { return "idempotency" }
