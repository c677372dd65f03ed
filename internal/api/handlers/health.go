package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DegradedChecker reports whether the OTP engine has fallen back to
// in-process storage.
type DegradedChecker interface {
	Degraded() bool
}

type HealthHandler struct {
	engine DegradedChecker
}

func NewHealthHandler(engine DegradedChecker) *HealthHandler {
	return &HealthHandler{engine: engine}
}

// Health handles GET /health - returns API health status
func (h *HealthHandler) Health(c *gin.Context) {
	store := "redis"
	if h.engine != nil && h.engine.Degraded() {
		store = "memory"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "protend-api",
		"otp_store": store,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness handles GET /ready
func (h *HealthHandler) Readiness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": gin.H{
			"api": "ok",
		},
	})
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Readiness)
}
