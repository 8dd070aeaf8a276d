// Reaction HTTP handlers.
//
// This file exposes REST endpoints for photo reactions:
//   - POST /photos/{id}/reactions  (toggle one reaction kind)
//   - GET  /photos/{id}/reactions  (aggregate counts + caller's marks)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. A toggle is involutive, so the
// same request flips the reaction on and off; clients that retry should send
// an Idempotency-Key so a resubmitted toggle is served as a replay instead of
// flipping the state back.
package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/snapquest/go-snapquest-backend/internal/domain"
	"github.com/snapquest/go-snapquest-backend/internal/http/middleware"
	"github.com/snapquest/go-snapquest-backend/internal/repo"
	"github.com/snapquest/go-snapquest-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// ReactionService defines the reaction operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ReactionService interface {
	// ToggleReaction flips playerID's reaction of the given kind on photoID.
	ToggleReaction(ctx context.Context, playerID, playerName, photoID, ownerID string, kind domain.ReactionKind) (*services.ToggleResult, error)
	// PhotoReactions returns aggregate counts plus playerID's own marks.
	PhotoReactions(ctx context.Context, playerID, photoID string) (*services.PhotoReactionView, error)
	// RetryAfter hints how long playerID must wait when rate limited.
	RetryAfter(playerID string) time.Duration
}

// NotificationService defines the inbox operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type NotificationService interface {
	// List returns one page of playerID's notifications plus the total count.
	List(ctx context.Context, playerID string, page, size int) ([]domain.Notification, int64, error)
	// UnreadCount returns how many notifications are still unread.
	UnreadCount(ctx context.Context, playerID string) (int64, error)
	// MarkRead flags one notification as read.
	MarkRead(ctx context.Context, playerID, notificationID string) error
	// MarkAllRead flags every unread notification as read.
	MarkAllRead(ctx context.Context, playerID string) (int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for reactions, notifications, and devices.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic; the DB handle covers the thin paths that
// have no service (device registry, idempotency records, ETag stats).
type Handlers struct {
	reactSvc ReactionService
	notifSvc NotificationService
	db       *gorm.DB

	// IdempotencyTTL bounds how long a stored reaction submission shields
	// retries. Zero disables persistence of idempotency records.
	IdempotencyTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(reactSvc ReactionService, notifSvc NotificationService, db *gorm.DB) *Handlers {
	return &Handlers{reactSvc: reactSvc, notifSvc: notifSvc, db: db}
}

// playerID extracts the authenticated player id from Gin context (set by
// upstream middleware). If absent, it falls back to "X-User-ID" header (tests
// use it), and finally to "demo-player". It never touches c.Request if it's nil.
func playerID(c *gin.Context) string {
	if v, ok := c.Get("playerID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-player"
}

// playerName extracts the caller's display name for notification text. The
// "X-User-Name" header is the demo stand-in for a profile lookup; an empty
// name is fine, summary composition degrades to "Someone".
func playerName(c *gin.Context) string {
	if c != nil && c.Request != nil {
		return strings.TrimSpace(c.GetHeader("X-User-Name"))
	}
	return ""
}

//
// DTOs
//

// ToggleReactionRequest is the JSON payload for toggling a reaction.
type ToggleReactionRequest struct {
	// Kind is the reaction category: heart, fire, or hundred.
	Kind string `json:"kind" binding:"required,oneof=heart fire hundred" example:"heart"`
	// OwnerID names the photo owner so they can be notified. Empty skips
	// the notification path (e.g. when the client knows it owns the photo).
	OwnerID string `json:"owner_id" example:"player42"`
}

//
// Handlers
//

// ToggleReaction godoc
// @ID          toggleReaction
// @Summary     Toggle a reaction on a photo
// @Description Flips the caller's reaction of the given kind and returns the new state and aggregate count.
// @Tags        Reactions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "Player ID (demo header)"   example(player123)
// @Param       X-User-Name      header  string  false "Player display name"       example(Ana)
// @Param       Idempotency-Key  header  string  false "Dedupe key for retries"
// @Param       id               path    string  true  "Photo ID"
// @Param       body             body    handlers.ToggleReactionRequest true "Toggle payload"
//
// @Success     200  {object} services.ToggleResult
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     429  {object} handlers.ErrorResponse "Reaction budget exhausted"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /photos/{id}/reactions [post]
func (h *Handlers) ToggleReaction(c *gin.Context) {
	var req ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind must be heart, fire or hundred")
		return
	}

	ctx := c.Request.Context()
	pid := playerID(c)
	photoID := c.Param("id")

	// A replayed submission must not flip the state back; serve the current
	// view instead.
	if middleware.IsReplay(c) {
		view, err := h.reactSvc.PhotoReactions(ctx, pid, photoID)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		ok(c, http.StatusOK, view)
		return
	}

	res, err := h.reactSvc.ToggleReaction(ctx, pid, playerName(c), photoID, req.OwnerID, domain.ReactionKind(req.Kind))
	if err != nil {
		switch err {
		case services.ErrInvalidReaction:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind must be heart, fire or hundred")
		case services.ErrRateLimited:
			if wait := h.reactSvc.RetryAfter(pid); wait > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, "too many reactions, slow down")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeToggleFailed, err.Error())
		}
		return
	}

	h.saveIdempotency(c, pid, photoID)
	ok(c, http.StatusOK, res)
}

// GetPhotoReactions godoc
// @ID          getPhotoReactions
// @Summary     Get a photo's reaction state
// @Description Returns aggregate counts per kind plus the caller's own marks.
// @Tags        Reactions
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Player ID (demo header)"  example(player123)
// @Param       id         path    string  true  "Photo ID"
//
// @Success     200  {object} services.PhotoReactionView
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /photos/{id}/reactions [get]
func (h *Handlers) GetPhotoReactions(c *gin.Context) {
	view, err := h.reactSvc.PhotoReactions(c.Request.Context(), playerID(c), c.Param("id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, view)
}

// saveIdempotency records a completed toggle so the idempotency middleware
// can flag a retry as a replay. Best effort: failures are ignored, a lost
// record only degrades retries back to plain toggles.
func (h *Handlers) saveIdempotency(c *gin.Context, pid, photoID string) {
	if h.db == nil || h.IdempotencyTTL <= 0 {
		return
	}
	key, present := middleware.GetIdempotencyKey(c)
	if !present {
		return
	}
	_, _ = repo.CreateIdempotency(c.Request.Context(), h.db, pid, photoID, key, "", http.StatusOK, h.IdempotencyTTL)
}
