package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/localplatform/homeroute-sub001/internal/caddy"
	"github.com/localplatform/homeroute-sub001/internal/certcheck"
	"github.com/localplatform/homeroute-sub001/internal/compiler"
	"github.com/localplatform/homeroute-sub001/internal/config"
	"github.com/localplatform/homeroute-sub001/internal/logging"
	"github.com/localplatform/homeroute-sub001/internal/registry"
)

var logger *logging.Logger

func initLogger() {
	logConfig := &logging.LogConfig{
		File:       "~/.homeroute/cli.log",
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
	}

	if err := logging.InitLogger(logConfig); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logging.GetGlobalLogger()
}

var rootCmd = &cobra.Command{
	Use:   "homeroute",
	Short: "homeroute CLI - reverse proxy registry operations",
	Long: `homeroute CLI inspects the routing registry, the proxy control plane
and the TLS certificates served for every configured domain.`,
}

var checkCertsCmd = &cobra.Command{
	Use:   "check-certs",
	Short: "Probe the TLS certificate of every configured domain",
	Run: func(cmd *cobra.Command, args []string) {
		_, reg := mustLoad()

		entries := compiler.DomainEntries(reg)
		if len(entries) == 0 {
			fmt.Println("No configured domains to check.")
			return
		}

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = fmt.Sprintf(" Probing %d domains...", len(entries))
		s.Start()

		monitor := certcheck.NewMonitor()
		results := monitor.ProbeAll(context.Background(), entries)
		s.Stop()

		for _, r := range results {
			if r.Valid {
				fmt.Printf("  OK   %-40s %3d days left (issuer: %s)\n", r.Domain, r.DaysRemaining, r.Issuer)
			} else {
				fmt.Printf("  FAIL %-40s %s\n", r.Domain, r.Reason)
			}
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the proxy control plane",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			logger.Error("Error loading config: %v", err)
			os.Exit(1)
		}

		status := caddy.NewClient(cfg.CaddyAdminAPI).Status(context.Background())
		switch {
		case !status.Reachable:
			fmt.Printf("Proxy admin API unreachable: %s\n", status.Error)
			os.Exit(1)
		case !status.ConfigLoaded:
			fmt.Println("Proxy reachable, no configuration loaded.")
		default:
			fmt.Println("Proxy reachable, configuration active.")
		}
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the compiled route list",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, reg := mustLoad()

		routes := compiler.Compile(reg, compiler.Options{
			DashboardUpstream: cfg.DashboardUpstream,
			AuthUpstream:      cfg.AuthUpstream,
			AuthForwardPath:   cfg.AuthForwardPath,
		})
		for _, route := range routes {
			id := route["@id"]
			hosts := ""
			if matches, ok := route["match"].([]interface{}); ok && len(matches) > 0 {
				if match, ok := matches[0].(map[string]interface{}); ok {
					if hostList, ok := match["host"].([]string); ok && len(hostList) > 0 {
						hosts = hostList[0]
					}
				}
			}
			fmt.Printf("  %-40s %s\n", id, hosts)
		}
	},
}

func mustLoad() (*config.Config, *registry.Registry) {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Error loading config: %v", err)
		os.Exit(1)
	}
	reg, err := registry.NewStore(cfg.RegistryPath).Load()
	if err != nil {
		logger.Error("Error loading registry: %v", err)
		os.Exit(1)
	}
	return cfg, reg
}

func main() {
	initLogger()

	rootCmd.AddCommand(checkCertsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(routesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
