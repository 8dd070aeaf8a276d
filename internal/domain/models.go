// Package domain defines the persistence models for notifications, reaction
// aggregates, and player devices. These types are mapped with GORM and form
// the core data layer of the SnapQuest backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Notification type discriminators. The immediate variant is sent exactly once
// per (photo, recipient) pair; every later burst of reactions arrives as a
// single batched record.
const (
	NotificationTypeReactionImmediate = "reaction_immediate"
	NotificationTypeReactionBatched   = "reaction_batched"
)

// Notification is the durable in-app record created for a player whenever
// someone reacts to one of their photos. Creation is synchronous: the row must
// exist before the corresponding push message is attempted, so the inbox never
// misses an event even when push delivery fails.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - PlayerID: identifier of the recipient; indexed for inbox retrieval.
//   - PhotoID: the photo the reactions landed on.
//   - Type: reaction_immediate or reaction_batched (enforced by DB constraint).
//   - Title / Body: human-readable content shown in the inbox and push banner.
//   - Read: unread by default; flipped by the inbox endpoints.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Notification struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	PlayerID  string         `json:"player_id"  gorm:"type:varchar(64);not null;index:idx_player_notifications,priority:1"`
	PhotoID   string         `json:"photo_id"   gorm:"type:varchar(64);not null"`
	Type      string         `json:"type"       gorm:"type:varchar(32);not null;check:type IN ('reaction_immediate','reaction_batched')"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null"`
	Body      string         `json:"body"       gorm:"type:text;not null"`
	Read      bool           `json:"read"       gorm:"not null;default:false;index:idx_player_notifications,priority:2"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// PhotoReaction is the authoritative aggregate count of one reaction kind on
// one photo. Clients toggle optimistically against their local mark cache and
// then read-modify-write this row; the row is the source of truth for counts
// shown to other participants and for the leaderboard.
type PhotoReaction struct {
	ID        string         `json:"id"       gorm:"type:char(36);primaryKey"`
	PhotoID   string         `json:"photo_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_photo_kind,priority:1"`
	Kind      string         `json:"kind"     gorm:"type:varchar(16);not null;uniqueIndex:ux_photo_kind,priority:2;check:kind IN ('heart','fire','hundred')"`
	Count     int64          `json:"count"    gorm:"not null;default:0"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for PhotoReaction.
func (PhotoReaction) TableName() string { return "photo_reactions" }

// PlayerDevice maps a player to the push token registered by their device.
// One row per (player, token); re-registration refreshes UpdatedAt. Push
// delivery fans out to every token a player has registered.
type PlayerDevice struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	PlayerID  string         `json:"player_id"  gorm:"type:varchar(64);not null;uniqueIndex:ux_player_token,priority:1"`
	PushToken string         `json:"push_token" gorm:"type:varchar(255);not null;uniqueIndex:ux_player_token,priority:2"`
	Platform  string         `json:"platform"   gorm:"type:varchar(16);not null;default:'unknown'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for PlayerDevice.
func (PlayerDevice) TableName() string { return "player_devices" }

// ReactionBlob is an opaque key/value row backing the client-visible reaction
// mark cache. The value is a JSON mapping of photoID to per-kind booleans,
// written as a whole blob on every toggle (last writer wins).
type ReactionBlob struct {
	Key       string    `gorm:"type:varchar(128);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the database table name for ReactionBlob.
func (ReactionBlob) TableName() string { return "reaction_blobs" }
