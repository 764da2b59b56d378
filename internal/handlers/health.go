package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck returns service health status (basic)
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "inventory-service",
	})
}

// ReadyCheck verifies downstream dependencies before reporting ready.
func (h *Handler) ReadyCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if err := h.repo.RedisHealth(ctx); err != nil {
		checks["redis"] = gin.H{"status": "unhealthy", "error": err.Error()}
	} else {
		checks["redis"] = gin.H{"status": "healthy"}
	}

	if err := h.repo.DBHealth(ctx); err != nil {
		checks["database"] = gin.H{"status": "unhealthy", "error": err.Error()}
		healthy = false
	} else {
		checks["database"] = gin.H{"status": "healthy"}
	}

	status := http.StatusOK
	state := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"service": "inventory-service",
		"checks":  checks,
	})
}
