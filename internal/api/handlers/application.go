package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/localplatform/homeroute-sub001/internal/api/dto/v1/registrydto"
	"github.com/localplatform/homeroute-sub001/internal/logging"
	"github.com/localplatform/homeroute-sub001/internal/service"
)

// ApplicationHandler handles application CRUD.
type ApplicationHandler struct {
	registryService service.RegistryService
}

// NewApplicationHandler creates a new application handler instance
func NewApplicationHandler(registryService service.RegistryService) *ApplicationHandler {
	return &ApplicationHandler{
		registryService: registryService,
	}
}

// ListApplications returns all applications.
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	reg, err := h.registryService.Get(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, reg.Applications)
}

// CreateApplication registers a new application.
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req registrydto.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.registryService.CreateApplication(c.Request.Context(), req.ToModel())
	if err != nil {
		logging.GetGlobalLogger().Error("CreateApplication: %v", err)
		handleError(c, err)
		return
	}
	handleMutation(c, result)
}

// UpdateApplication replaces an application's configuration.
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	var req registrydto.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.registryService.UpdateApplication(c.Request.Context(), c.Param("slug"), req.ToModel())
	if err != nil {
		logging.GetGlobalLogger().Error("UpdateApplication: %v", err)
		handleError(c, err)
		return
	}
	handleMutation(c, result)
}

// DeleteApplication removes an application and all of its routes.
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	result, err := h.registryService.DeleteApplication(c.Request.Context(), c.Param("slug"))
	if err != nil {
		logging.GetGlobalLogger().Error("DeleteApplication: %v", err)
		handleError(c, err)
		return
	}
	handleMutation(c, result)
}
