package main

import (
	"context"
	"os"

	"github.com/localplatform/homeroute-sub001/internal/certcheck"
	"github.com/localplatform/homeroute-sub001/internal/config"
	"github.com/localplatform/homeroute-sub001/internal/logging"
	"github.com/localplatform/homeroute-sub001/internal/registry"
	"github.com/localplatform/homeroute-sub001/internal/server"
	"github.com/localplatform/homeroute-sub001/internal/tasks"
	"github.com/localplatform/homeroute-sub001/internal/telemetry"
)

func main() {
	// Set development environment variables
	if os.Getenv("ENV") != "production" {
		os.Setenv("ENV", "development")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger configuration
	logConfig := &logging.LogConfig{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
	}

	if err := logging.InitLogger(logConfig); err != nil {
		panic(err)
	}
	logger := logging.GetGlobalLogger()
	defer logger.Close()

	logger.Info("Starting server in %s mode", cfg.Environment)

	// Initialize tracing
	shutdownTelemetry, err := telemetry.Init(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("Failed to initialize telemetry: %v", err)
		os.Exit(1)
	}
	defer shutdownTelemetry(context.Background())

	// Start the scheduled certificate sweep
	sweep := tasks.NewCertSweep(registry.NewStore(cfg.RegistryPath), certcheck.NewMonitor(), cfg.CertCheckSchedule)
	if err := sweep.Start(); err != nil {
		logger.Error("Failed to start certificate sweep: %v", err)
		os.Exit(1)
	}
	defer sweep.Stop()

	// Create and start server
	srv := server.NewServer(cfg)
	if err := srv.Init(); err != nil {
		logger.Error("Failed to initialize server: %v", err)
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("Failed to start server: %v", err)
		os.Exit(1)
	}
}
