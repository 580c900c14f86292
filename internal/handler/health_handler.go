package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves the keep-alive/health endpoint.
type HealthHandler struct{}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// GetHealth answers platform keep-alive pings.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.String(http.StatusOK, "Bot is running correctly")
}
