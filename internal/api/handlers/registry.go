package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/localplatform/homeroute-sub001/internal/api/dto/v1/registrydto"
	"github.com/localplatform/homeroute-sub001/internal/logging"
	"github.com/localplatform/homeroute-sub001/internal/service"
)

// RegistryHandler exposes the registry document and its top-level settings.
type RegistryHandler struct {
	registryService service.RegistryService
}

// NewRegistryHandler creates a new registry handler instance
func NewRegistryHandler(registryService service.RegistryService) *RegistryHandler {
	return &RegistryHandler{
		registryService: registryService,
	}
}

// GetRegistry returns the full registry document, revision included.
func (h *RegistryHandler) GetRegistry(c *gin.Context) {
	reg, err := h.registryService.Get(c.Request.Context())
	if err != nil {
		logging.GetGlobalLogger().Error("GetRegistry: failed to load registry: %v", err)
		handleError(c, err)
		return
	}
	handleSuccess(c, reg)
}

// SetBaseDomain sets the base domain used for all derived hostnames.
func (h *RegistryHandler) SetBaseDomain(c *gin.Context) {
	var req registrydto.SetDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.registryService.SetBaseDomain(c.Request.Context(), req.BaseDomain)
	if err != nil {
		logging.GetGlobalLogger().Error("SetBaseDomain: %v", err)
		handleError(c, err)
		return
	}
	handleMutation(c, result)
}

// SetCloudflare toggles the wildcard DNS-challenge TLS provider.
func (h *RegistryHandler) SetCloudflare(c *gin.Context) {
	var req registrydto.SetCloudflareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.registryService.SetCloudflare(c.Request.Context(), req.Enabled)
	if err != nil {
		logging.GetGlobalLogger().Error("SetCloudflare: %v", err)
		handleError(c, err)
		return
	}
	handleMutation(c, result)
}
