package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/localplatform/homeroute-sub001/internal/api/dto/v1/registrydto"
	"github.com/localplatform/homeroute-sub001/internal/logging"
	"github.com/localplatform/homeroute-sub001/internal/service"
)

// EnvironmentHandler handles environment CRUD.
type EnvironmentHandler struct {
	registryService service.RegistryService
}

// NewEnvironmentHandler creates a new environment handler instance
func NewEnvironmentHandler(registryService service.RegistryService) *EnvironmentHandler {
	return &EnvironmentHandler{
		registryService: registryService,
	}
}

// ListEnvironments returns all environments.
func (h *EnvironmentHandler) ListEnvironments(c *gin.Context) {
	reg, err := h.registryService.Get(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, reg.Environments)
}

// CreateEnvironment adds a new environment.
func (h *EnvironmentHandler) CreateEnvironment(c *gin.Context) {
	var req registrydto.EnvironmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.registryService.CreateEnvironment(c.Request.Context(), req.ToModel())
	if err != nil {
		logging.GetGlobalLogger().Error("CreateEnvironment: %v", err)
		handleError(c, err)
		return
	}
	handleMutation(c, result)
}

// UpdateEnvironment updates an existing environment.
func (h *EnvironmentHandler) UpdateEnvironment(c *gin.Context) {
	var req registrydto.EnvironmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.registryService.UpdateEnvironment(c.Request.Context(), c.Param("id"), req.ToModel())
	if err != nil {
		logging.GetGlobalLogger().Error("UpdateEnvironment: %v", err)
		handleError(c, err)
		return
	}
	handleMutation(c, result)
}

// DeleteEnvironment deletes an environment not referenced by any
// application.
func (h *EnvironmentHandler) DeleteEnvironment(c *gin.Context) {
	result, err := h.registryService.DeleteEnvironment(c.Request.Context(), c.Param("id"))
	if err != nil {
		logging.GetGlobalLogger().Error("DeleteEnvironment: %v", err)
		handleError(c, err)
		return
	}
	handleMutation(c, result)
}
