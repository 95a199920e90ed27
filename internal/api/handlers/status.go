package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/localplatform/homeroute-sub001/internal/service"
)

// StatusHandler exposes control-plane and certificate state for the
// dashboard.
type StatusHandler struct {
	registryService service.RegistryService
}

// NewStatusHandler creates a new status handler instance
func NewStatusHandler(registryService service.RegistryService) *StatusHandler {
	return &StatusHandler{
		registryService: registryService,
	}
}

// ProxyStatus reports control-plane reachability and whether a
// configuration is currently loaded.
func (h *StatusHandler) ProxyStatus(c *gin.Context) {
	handleSuccess(c, h.registryService.ProxyStatus(c.Request.Context()))
}

// CertificateStatus probes every configured domain. Individual probe
// failures are per-domain results, never fatal to the call.
func (h *StatusHandler) CertificateStatus(c *gin.Context) {
	results, err := h.registryService.CertificateStatus(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, results)
}

// Routes previews the compiled route list without pushing it.
func (h *StatusHandler) Routes(c *gin.Context) {
	routes, err := h.registryService.CompileRoutes(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, routes)
}
