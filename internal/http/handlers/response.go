// Package handlers implements the HTTP handlers behind the public API.
//
// Every endpoint returns JSON. Failures share a single envelope shape so
// clients can branch on a stable code string rather than parse messages:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "resource not found"
//	}
//
// Success bodies are endpoint-specific, for example a reaction toggle:
//
//	HTTP/1.1 200 OK
//	{ "reacting": true, "count": 3 }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snapquest/go-snapquest-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope shared by all endpoints. RequestID
// echoes the X-Request-ID response header so a client report can be matched
// to server logs; Code is one of the stable constants in errors.go.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"resource not found"`
}

// fail writes an ErrorResponse and aborts the chain. Statuses of 500 and
// above are also logged through the request-scoped logger so server faults
// show up in the structured log stream with their request id.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail exposes fail to other packages that wire routes (fallback handlers,
// middleware callbacks) so every error on the wire uses the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok serializes body as JSON with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent responds 204 with an empty body.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
