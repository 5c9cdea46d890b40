package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports liveness of the HTTP side; it does not wait on the poller.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
