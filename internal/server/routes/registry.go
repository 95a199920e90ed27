package routes

import (
	"github.com/gin-gonic/gin"
)

// SetupRegistryRoutes configures the registry CRUD routes
func SetupRegistryRoutes(v1Group *gin.RouterGroup, h *Handlers) {
	v1Group.GET("/registry", h.Registry.GetRegistry)
	v1Group.PUT("/registry/domain", h.Registry.SetBaseDomain)
	v1Group.PUT("/cloudflare", h.Registry.SetCloudflare)

	environments := v1Group.Group("/environments")
	{
		environments.GET("", h.Environment.ListEnvironments)
		environments.POST("", h.Environment.CreateEnvironment)
		environments.PUT("/:id", h.Environment.UpdateEnvironment)
		environments.DELETE("/:id", h.Environment.DeleteEnvironment)
	}

	applications := v1Group.Group("/applications")
	{
		applications.GET("", h.Application.ListApplications)
		applications.POST("", h.Application.CreateApplication)
		applications.PUT("/:slug", h.Application.UpdateApplication)
		applications.DELETE("/:slug", h.Application.DeleteApplication)
	}

	hosts := v1Group.Group("/hosts")
	{
		hosts.GET("", h.Host.ListHosts)
		hosts.POST("", h.Host.CreateHost)
		hosts.PUT("/:id", h.Host.UpdateHost)
		hosts.DELETE("/:id", h.Host.DeleteHost)
	}
}
