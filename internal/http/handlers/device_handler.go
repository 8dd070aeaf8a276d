// Device HTTP handlers.
//
// This file exposes the endpoint that mobile clients call after obtaining a
// push token:
//   - POST /devices  (register or refresh a push token)
//
// Token registration is an upsert: re-registering the same (player, token)
// pair refreshes the row instead of erroring, since clients re-post their
// token on every launch.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/snapquest/go-snapquest-backend/internal/repo"
)

// RegisterDeviceRequest is the JSON payload for registering a push token.
type RegisterDeviceRequest struct {
	// Token is the opaque push token issued by the platform's push service.
	Token string `json:"token" binding:"required,min=1,max=4096" example:"fcm:abc123"`
	// Platform identifies the device platform (ios, android). Optional.
	Platform string `json:"platform" binding:"omitempty,oneof=ios android" example:"ios"`
}

// RegisterDevice godoc
// @ID          registerDevice
// @Summary     Register a push token for the current player
// @Tags        Devices
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Player ID (demo header)"  example(player123)
// @Param       body       body    handlers.RegisterDeviceRequest true "Device payload"
//
// @Success     201  {object} domain.PlayerDevice
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /devices [post]
func (h *Handlers) RegisterDevice(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "token is required")
		return
	}

	dev, err := repo.RegisterDevice(c.Request.Context(), h.db, playerID(c), strings.TrimSpace(req.Token), req.Platform)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRegisterFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, dev)
}
