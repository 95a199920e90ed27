package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/localplatform/homeroute-sub001/internal/service"
)

// HealthHandler reports service liveness plus proxy reachability.
type HealthHandler struct {
	registryService service.RegistryService
	registryPath    string
}

// NewHealthHandler creates a new health handler instance
func NewHealthHandler(registryService service.RegistryService, registryPath string) *HealthHandler {
	return &HealthHandler{
		registryService: registryService,
		registryPath:    registryPath,
	}
}

// Check returns the health of the dashboard and the proxy control plane.
func (h *HealthHandler) Check(c *gin.Context) {
	status := h.registryService.ProxyStatus(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"registryPath": h.registryPath,
		"proxy":        status,
	})
}
