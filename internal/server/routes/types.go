package routes

import (
	"github.com/localplatform/homeroute-sub001/internal/api/handlers"
)

// Handlers contains all the route handlers
type Handlers struct {
	Registry    *handlers.RegistryHandler
	Environment *handlers.EnvironmentHandler
	Application *handlers.ApplicationHandler
	Host        *handlers.HostHandler
	Status      *handlers.StatusHandler
	Health      *handlers.HealthHandler
}
