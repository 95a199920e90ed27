package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Environment string `env:"ENV" envDefault:"development"`
	Port        string `env:"API_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`

	// Registry Configuration
	RegistryPath string `env:"REGISTRY_PATH" envDefault:"./data/registry.json"`

	// Caddy Configuration
	CaddyAdminAPI string `env:"CADDY_ADMIN_API" envDefault:"http://localhost:2019"`

	// Upstreams for the reserved system routes
	DashboardUpstream string `env:"DASHBOARD_UPSTREAM" envDefault:"localhost:8080"`
	AuthUpstream      string `env:"AUTH_UPSTREAM" envDefault:"localhost:9091"`

	// Forward-auth contract: path on AuthUpstream that returns 200/401/403
	AuthForwardPath string `env:"AUTH_FORWARD_PATH" envDefault:"/api/verify"`

	// ACME Configuration
	AcmeCA string `env:"ACME_CA" envDefault:"https://acme-v02.api.letsencrypt.org/directory"`

	// Cloudflare Configuration
	CloudflareToken string `env:"CLOUDFLARE_API_TOKEN"`

	// Certificate sweep schedule (cron expression, empty disables)
	CertCheckSchedule string `env:"CERT_CHECK_SCHEDULE" envDefault:"0 */6 * * *"`

	// CORS
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`

	// Telemetry Configuration
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load loads the configuration from environment variables and .env files
func Load() (*Config, error) {
	// Load .env file if it exists
	// Try multiple locations for .env file
	envLocations := []string{
		"internal/config/env/.env.production",
		"internal/config/env/.env.development",
		".env",
	}

	// If ENV is set, try to load that specific file first
	envName := os.Getenv("ENV")
	if envName != "" {
		envLocations = append([]string{fmt.Sprintf("internal/config/env/.env.%s", envName)}, envLocations...)
	}

	for _, loc := range envLocations {
		if err := godotenv.Load(loc); err == nil {
			break
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Set default log file if not set
	if cfg.LogFile == "" {
		if cfg.Environment == "production" {
			cfg.LogFile = "/app/logs/homeroute.log"
		} else {
			cfg.LogFile = "./logs/homeroute.log"
		}
	}

	// Ensure log directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return cfg, nil
}
