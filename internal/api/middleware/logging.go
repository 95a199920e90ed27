package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/localplatform/homeroute-sub001/internal/logging"
)

// RequestLogger logs each request with method, path, status and latency.
func RequestLogger() gin.HandlerFunc {
	logger := logging.GetGlobalLogger()

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		if status >= 500 {
			logger.Error("%s %s -> %d (%s)", c.Request.Method, path, status, latency)
		} else {
			logger.Info("%s %s -> %d (%s)", c.Request.Method, path, status, latency)
		}
	}
}
