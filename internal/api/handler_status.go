package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetRoot handles GET /.
func (h *Handler) GetRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to Fitness Studio Booking API",
		"version": Version,
	})
}

// GetHealth handles GET /health. It reports 503 when the database is unreachable.
func (h *Handler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logError(c, err, "health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "message": "Database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "API is running"})
}
