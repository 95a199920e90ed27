package server

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/localplatform/homeroute-sub001/internal/api/handlers"
	"github.com/localplatform/homeroute-sub001/internal/api/validation"
	"github.com/localplatform/homeroute-sub001/internal/caddy"
	"github.com/localplatform/homeroute-sub001/internal/certcheck"
	"github.com/localplatform/homeroute-sub001/internal/compiler"
	"github.com/localplatform/homeroute-sub001/internal/config"
	"github.com/localplatform/homeroute-sub001/internal/registry"
	"github.com/localplatform/homeroute-sub001/internal/server/routes"
	"github.com/localplatform/homeroute-sub001/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	cfg    *config.Config

	RegistryService service.RegistryService
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Disable Gin's default logger entirely because we're using our custom logger
	gin.DisableConsoleColor()
	gin.DefaultWriter = io.Discard

	// Register custom validators on gin's binding engine
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.RegisterValidators(v)
	}

	router := gin.New()

	if cfg.OTLPEndpoint != "" {
		router.Use(otelgin.Middleware("homeroute"))
	}

	routes.SetupGlobalMiddleware(router)

	return &Server{
		router: router,
		cfg:    cfg,
	}
}

// Init wires the registry store, the proxy control client and the
// certificate monitor into the service layer and registers all routes.
func (s *Server) Init() error {
	store := registry.NewStore(s.cfg.RegistryPath)
	proxy := caddy.NewClient(s.cfg.CaddyAdminAPI)
	monitor := certcheck.NewMonitor()

	s.RegistryService = service.NewRegistryService(store, proxy, monitor,
		compiler.Options{
			DashboardUpstream: s.cfg.DashboardUpstream,
			AuthUpstream:      s.cfg.AuthUpstream,
			AuthForwardPath:   s.cfg.AuthForwardPath,
		},
		compiler.TLSOptions{
			AcmeCA:          s.cfg.AcmeCA,
			CloudflareToken: s.cfg.CloudflareToken,
		},
	)

	h := &routes.Handlers{
		Registry:    handlers.NewRegistryHandler(s.RegistryService),
		Environment: handlers.NewEnvironmentHandler(s.RegistryService),
		Application: handlers.NewApplicationHandler(s.RegistryService),
		Host:        handlers.NewHostHandler(s.RegistryService),
		Status:      handlers.NewStatusHandler(s.RegistryService),
		Health:      handlers.NewHealthHandler(s.RegistryService, s.cfg.RegistryPath),
	}

	routes.Setup(s.router, h)
	return nil
}

// Start starts the server
func (s *Server) Start() error {
	return s.router.Run(":" + s.cfg.Port)
}
