package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Index handles GET /
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"name": h.serviceName}})
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
