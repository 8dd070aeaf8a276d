// Package services holds the business logic for reactions and
// notifications. Sentinel errors shared by the service methods live here so
// callers can branch with errors.Is; handlers translate them into HTTP
// status codes and envelope codes.
package services

import "errors"

var (
	// ErrInvalidReaction rejects a reaction kind outside the allowed set
	// of heart, fire, and hundred.
	ErrInvalidReaction = errors.New("invalid reaction kind")

	// ErrRateLimited means the player spent their reaction budget for the
	// current window. ReactionService.RetryAfter gives the wait hint.
	ErrRateLimited = errors.New("too many reactions, slow down")

	// ErrNotificationNotFound covers both a missing notification and one
	// owned by a different player; callers cannot distinguish the two.
	ErrNotificationNotFound = errors.New("notification not found")
)
