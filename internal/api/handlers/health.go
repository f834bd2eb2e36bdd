package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/story-assistant/internal/logger"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

const readyPingTimeout = 3 * time.Second

// Pinger checks that the completion endpoint is reachable
type Pinger interface {
	Ping(ctx context.Context) error
	BaseURL() string
}

type HealthHandler struct {
	pinger Pinger
}

func NewHealthHandler(pinger Pinger) *HealthHandler {
	return &HealthHandler{pinger: pinger}
}

// HealthCheck reports that the process is up
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// Ready reports whether the completion endpoint answers
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyPingTimeout)
	defer cancel()

	endpoint := gin.H{"url": h.pinger.BaseURL()}
	if err := h.pinger.Ping(ctx); err != nil {
		logger.LogToSentry(sentry.LevelWarning, "Completion endpoint not ready", logger.Fields{
			"request_id": c.GetString("request_id"),
			"endpoint":   h.pinger.BaseURL(),
			"error":      err.Error(),
		})

		endpoint["status"] = "unreachable"
		endpoint["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":              "not_ready",
			"completion_endpoint": endpoint,
		})
		return
	}

	endpoint["status"] = "reachable"
	c.JSON(http.StatusOK, gin.H{
		"status":              "ready",
		"completion_endpoint": endpoint,
	})
}
