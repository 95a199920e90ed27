package routes

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/localplatform/homeroute-sub001/internal/api/middleware"
	"github.com/localplatform/homeroute-sub001/internal/logging"
)

// Setup configures all route groups
func Setup(router *gin.Engine, h *Handlers) {
	logger := logging.GetGlobalLogger()

	// Health check endpoint - outside the versioned API
	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")

	SetupRegistryRoutes(v1, h)
	SetupStatusRoutes(v1, h)

	logger.Info("All routes have been set up successfully")
}

// SetupGlobalMiddleware configures middleware that applies to all routes
func SetupGlobalMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		RPS:   10,
		Burst: 20,
	}))
	router.Use(handleTrailingSlash())
}

// handleTrailingSlash middleware removes the need for strict trailing slash matching
func handleTrailingSlash() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if path != "/" && strings.HasSuffix(path, "/") {
			c.Request.URL.Path = strings.TrimSuffix(path, "/")
		}

		c.Next()
	}
}
