package routes

import (
	"github.com/gin-gonic/gin"
)

// SetupStatusRoutes configures the dashboard status routes
func SetupStatusRoutes(v1Group *gin.RouterGroup, h *Handlers) {
	status := v1Group.Group("/status")
	{
		status.GET("/proxy", h.Status.ProxyStatus)
		status.GET("/certificates", h.Status.CertificateStatus)
	}

	// Compiled route preview, not a push
	v1Group.GET("/routes", h.Status.Routes)
}
