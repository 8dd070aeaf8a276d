// Package httpapi assembles the Gin engine: middleware pipeline, health and
// metrics endpoints, and the versioned public API. All dependencies come in
// through RegisterRoutes so tests can wire an in-memory database and a stub
// push gateway.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/snapquest/go-snapquest-backend/internal/config"
	"github.com/snapquest/go-snapquest-backend/internal/http/handlers"
	"github.com/snapquest/go-snapquest-backend/internal/http/middleware"
	"github.com/snapquest/go-snapquest-backend/internal/notify"
	"github.com/snapquest/go-snapquest-backend/internal/push"
	"github.com/snapquest/go-snapquest-backend/internal/ratelimit"
	"github.com/snapquest/go-snapquest-backend/internal/repo"
	"github.com/snapquest/go-snapquest-backend/internal/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// RegisterRoutes attaches the full middleware pipeline and every endpoint to
// the engine. Ordering is deliberate: tracing wraps everything, the request
// id must exist before logging, recovery sits after the logger so panics are
// logged, and idempotency validation runs ahead of the rate limiter so a
// replayed submission is never counted against the player's budget.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())

	// Reaction and device payloads are tiny; 1 MiB is generous.
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// A lookup failure is treated as a miss so persistence trouble slows
	// clients down (no bypass) instead of failing their requests.
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, playerID, photoID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, playerID, photoID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByPlayerOrIP())
	r.Use(rl.Handler())

	mountCORS(r, cfg.CORS.AllowedOrigins)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Wire the reaction pipeline: push client feeds the dispatcher, the
	// scheduler batches reaction events, the registry enforces per-player
	// reaction budgets.
	pushClient := push.NewClient(cfg.Notify.PushEndpoint, cfg.Notify.PushTimeout)
	dispatcher := notify.NewDispatcher(db, pushClient, repo.DeviceTokenSource{DB: db})
	dispatcher.PushTimeout = cfg.Notify.PushTimeout
	scheduler := notify.NewScheduler(cfg.Notify.BatchWindow, nil)
	limits := ratelimit.NewRegistry(cfg.ReactionRate.MaxRequests, cfg.ReactionRate.Window)

	reactSvc := services.NewReactionService(db, scheduler, dispatcher, limits)
	notifSvc := &services.NotificationService{DB: db}
	h := handlers.New(reactSvc, notifSvc, db)
	h.IdempotencyTTL = cfg.IdempotencyTTL

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/photos/:id/reactions", h.ToggleReaction)
		api.GET("/photos/:id/reactions", h.GetPhotoReactions)

		api.GET("/notifications", h.ListNotifications)
		api.GET("/notifications/unread_count", h.UnreadCount)
		api.POST("/notifications/:id/read", h.MarkNotificationRead)
		api.POST("/notifications/read_all", h.MarkAllNotificationsRead)

		api.POST("/devices", h.RegisterDevice)
	}
}

// corsHeaders lists the request headers the mobile client is allowed to
// send, including the identity shim headers and the idempotency key.
var corsHeaders = []string{
	"Origin", "Content-Type", "Accept", "Authorization",
	"X-User-ID", "X-User-Name", middleware.HeaderIdempotencyKey,
}

// mountCORS installs the CORS layer. With no configured origins everything
// is allowed and ACAO:* is forced even on requests without an Origin header,
// which keeps plain health checks and tests simple. With an allowlist, the
// matching origin is echoed back with a Vary: Origin marker.
func mountCORS(r *gin.Engine, origins []string) {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false, // must stay false when all origins are allowed
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		base.AllowAllOrigins = true
		r.Use(cors.New(base))
		return
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	base.AllowOrigins = origins
	r.Use(cors.New(base))
}

// limitBody caps request body size with http.MaxBytesReader; reads past the
// cap fail downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" and "" as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
