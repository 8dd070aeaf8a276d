// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for unsafe methods. Mobile
// clients fire duplicate reaction toggles on enthusiastic double-taps; a
// stable Idempotency-Key lets the backend recognize the retry, skip the
// second toggle, and serve the stored outcome. The middleware validates the
// header, stashes the key in the context, and asks a pluggable lookup
// whether a completed result already exists for (player, photo, key).
// Persistence stays out of the middleware; handlers decide how replays are
// served.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients send with reaction
// submissions. The value must be stable across retries of the same tap.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys for idempotency state, read through the accessors below.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

// GetIdempotencyKey returns the validated key stashed by
// IdempotencyValidator, with presence as the second return.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the lookup found a previously completed result
// for this request's (player, photo, key) tuple.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions tunes header validation. TTL is not enforced here; the
// lookup implementation owns expiry.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length; <= 0 defaults to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil uses a conservative
	// token pattern, ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a successful, still-valid result exists
// for (playerID, photoID, key) at the given time. Errors mean the lookup
// itself failed and must not block normal processing.
type IdempotencyLookup func(ctx context.Context, playerID, photoID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present,
// stashes it for handlers, and flags replays so the rate limiter skips them.
//
// Absent header: no-op. Invalid header: 400 with a compact error body.
// Lookup hit: sets the replay and rate-bypass flags and continues; the
// handler serves the stored outcome instead of re-executing.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			pid := playerIDFromCtx(c)
			photoID := c.Param("id") // POST /photos/:id/reactions
			if exists, _ := lookup(c.Request.Context(), pid, photoID, key, time.Now().UTC()); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

// playerIDFromCtx reads the player identity placed in the context by the
// identity shim, falling back to the demo identity used in development.
func playerIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get("playerID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "demo-player"
}
