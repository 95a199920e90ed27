package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/localplatform/homeroute-sub001/internal/api/dto/v1/registrydto"
	"github.com/localplatform/homeroute-sub001/internal/logging"
	"github.com/localplatform/homeroute-sub001/internal/service"
)

// HostHandler handles standalone host CRUD.
type HostHandler struct {
	registryService service.RegistryService
}

// NewHostHandler creates a new host handler instance
func NewHostHandler(registryService service.RegistryService) *HostHandler {
	return &HostHandler{
		registryService: registryService,
	}
}

// ListHosts returns all standalone hosts.
func (h *HostHandler) ListHosts(c *gin.Context) {
	reg, err := h.registryService.Get(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, reg.Hosts)
}

// CreateHost registers a new standalone host route.
func (h *HostHandler) CreateHost(c *gin.Context) {
	var req registrydto.HostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.registryService.CreateHost(c.Request.Context(), req.ToModel())
	if err != nil {
		logging.GetGlobalLogger().Error("CreateHost: %v", err)
		handleError(c, err)
		return
	}
	handleMutation(c, result)
}

// UpdateHost replaces a host's configuration.
func (h *HostHandler) UpdateHost(c *gin.Context) {
	var req registrydto.HostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.registryService.UpdateHost(c.Request.Context(), c.Param("id"), req.ToModel())
	if err != nil {
		logging.GetGlobalLogger().Error("UpdateHost: %v", err)
		handleError(c, err)
		return
	}
	handleMutation(c, result)
}

// DeleteHost removes a host and its route.
func (h *HostHandler) DeleteHost(c *gin.Context) {
	result, err := h.registryService.DeleteHost(c.Request.Context(), c.Param("id"))
	if err != nil {
		logging.GetGlobalLogger().Error("DeleteHost: %v", err)
		handleError(c, err)
		return
	}
	handleMutation(c, result)
}
