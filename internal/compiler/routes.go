package compiler

import (
	"fmt"
	"strings"

	"github.com/localplatform/homeroute-sub001/internal/registry"
)

// Route is one Caddy route object, keyed by "@id" and pushed verbatim to
// the proxy's admin API.
type Route = map[string]interface{}

// Options carries the deployment-specific upstreams the compiler cannot
// derive from the registry.
type Options struct {
	// DashboardUpstream is the dial address of this dashboard itself,
	// served at proxy.{base}.
	DashboardUpstream string
	// AuthUpstream is the dial address of the authentication service,
	// served at auth.{base} and used for forward-auth interception.
	AuthUpstream string
	// AuthForwardPath is the forward-auth endpoint on AuthUpstream that
	// returns 200 to authorize and 401/403 to deny.
	AuthForwardPath string
}

// Private-network ranges allowed through localOnly rules.
var privateRanges = []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "127.0.0.0/8"}

// Rule ids for the reserved system routes.
const (
	DashboardRuleID = "system:dashboard"
	AuthRuleID      = "system:auth"
)

// DomainEntry associates a compiled rule id with its hostname. The
// certificate monitor keys its results by rule id so the dashboard can
// correlate route and certificate.
type DomainEntry struct {
	RuleID string `json:"ruleId"`
	Domain string `json:"domain"`
}

// boundEndpoint is one entity route after domain derivation, before
// handler composition.
type boundEndpoint struct {
	id          string
	domain      string
	targetHost  string
	targetPort  int
	localOnly   bool
	requireAuth bool
	devBypass   bool
}

// Compile turns the registry into the ordered route list the proxy
// evaluates first-match-wins. Reserved system routes come first, then every
// enabled application endpoint, then every enabled host. Every rule is
// terminal, which is why nothing may claim the system hostnames.
func Compile(reg *registry.Registry, opts Options) []Route {
	routes := []Route{}

	if reg.BaseDomain != "" {
		routes = append(routes,
			buildRoute(DashboardRuleID, SystemDomain(DashboardLabel, reg.BaseDomain), reg.BaseDomain,
				[]interface{}{reverseProxyHandler(opts.DashboardUpstream)}),
			buildRoute(AuthRuleID, SystemDomain(AuthLabel, reg.BaseDomain), reg.BaseDomain,
				[]interface{}{reverseProxyHandler(opts.AuthUpstream)}),
		)
	}

	for _, ep := range enumerateEndpoints(reg) {
		routes = append(routes, compileEndpoint(ep, reg.BaseDomain, opts))
	}

	return routes
}

// DomainEntries lists every configured, enabled entity domain in compile
// order: hosts and every application endpoint across every environment.
// System routes are excluded; their certificates are covered by the same
// issuance policy as everything else.
func DomainEntries(reg *registry.Registry) []DomainEntry {
	endpoints := enumerateEndpoints(reg)
	entries := make([]DomainEntry, 0, len(endpoints))
	for _, ep := range endpoints {
		entries = append(entries, DomainEntry{RuleID: ep.id, Domain: ep.domain})
	}
	return entries
}

// enumerateEndpoints walks enabled applications (environments in registry
// order, frontend before APIs) and enabled hosts, deriving each domain.
// Endpoints that need a base domain are skipped until one is configured.
func enumerateEndpoints(reg *registry.Registry) []boundEndpoint {
	var endpoints []boundEndpoint

	for i := range reg.Applications {
		app := &reg.Applications[i]
		if !app.Enabled || reg.BaseDomain == "" {
			continue
		}
		for j := range reg.Environments {
			env := reg.Environments[j]
			set, ok := app.Endpoints[env.ID]
			if !ok {
				continue
			}
			dev := isDevEnvironment(env)
			if set.Frontend != nil {
				endpoints = append(endpoints, boundEndpoint{
					id:          fmt.Sprintf("%s:%s:frontend", app.ID, env.ID),
					domain:      AppDomain(app.Slug, Frontend(), env, reg.BaseDomain),
					targetHost:  set.Frontend.TargetHost,
					targetPort:  set.Frontend.TargetPort,
					localOnly:   set.Frontend.LocalOnly,
					requireAuth: set.Frontend.RequireAuth,
					devBypass:   dev,
				})
			}
			for _, api := range set.APIs {
				id := fmt.Sprintf("%s:%s:api", app.ID, env.ID)
				if api.Slug != "" {
					id = id + ":" + api.Slug
				}
				endpoints = append(endpoints, boundEndpoint{
					id:          id,
					domain:      AppDomain(app.Slug, API(api.Slug), env, reg.BaseDomain),
					targetHost:  api.TargetHost,
					targetPort:  api.TargetPort,
					localOnly:   api.LocalOnly,
					requireAuth: api.RequireAuth,
					devBypass:   dev,
				})
			}
		}
	}

	for i := range reg.Hosts {
		host := reg.Hosts[i]
		if !host.Enabled {
			continue
		}
		if host.Subdomain != "" && reg.BaseDomain == "" {
			continue
		}
		endpoints = append(endpoints, boundEndpoint{
			id:          host.ID,
			domain:      HostDomain(host, reg.BaseDomain),
			targetHost:  host.TargetHost,
			targetPort:  host.TargetPort,
			localOnly:   host.LocalOnly,
			requireAuth: host.RequireAuth,
		})
	}

	return endpoints
}

// compileEndpoint composes the fixed handler chain for one rule:
// security headers, then (optionally) the private-IP subroute wrapping
// (optionally) auth interception ahead of the reverse proxy.
func compileEndpoint(ep boundEndpoint, baseDomain string, opts Options) Route {
	proxy := reverseProxyHandler(fmt.Sprintf("%s:%d", ep.targetHost, ep.targetPort))

	var inner []interface{}
	switch {
	case ep.requireAuth && ep.devBypass:
		// Development environments let live-reload websocket upgrades
		// through without auth; everything else is intercepted.
		inner = []interface{}{subrouteHandler([]interface{}{
			map[string]interface{}{
				"match":    []interface{}{map[string]interface{}{"header": map[string]interface{}{"Upgrade": []string{"websocket"}}}},
				"handle":   []interface{}{proxy},
				"terminal": true,
			},
			map[string]interface{}{
				"handle": []interface{}{authInterceptHandler(baseDomain, opts), proxy},
			},
		})}
	case ep.requireAuth:
		inner = []interface{}{authInterceptHandler(baseDomain, opts), proxy}
	default:
		inner = []interface{}{proxy}
	}

	if ep.localOnly {
		inner = []interface{}{subrouteHandler([]interface{}{
			map[string]interface{}{
				"match":  []interface{}{map[string]interface{}{"remote_ip": map[string]interface{}{"ranges": privateRanges}}},
				"handle": inner,
			},
			map[string]interface{}{
				"handle":   []interface{}{staticResponseHandler(403)},
				"terminal": true,
			},
		})}
	}

	return buildRoute(ep.id, ep.domain, baseDomain, inner)
}

func buildRoute(id, domain, baseDomain string, inner []interface{}) Route {
	handle := append([]interface{}{securityHeadersHandler(baseDomain)}, inner...)
	return Route{
		"@id":      id,
		"match":    []interface{}{map[string]interface{}{"host": []string{domain}}},
		"handle":   handle,
		"terminal": true,
	}
}

// securityHeadersHandler sets a Content-Security-Policy scoped to the base
// domain on every response.
func securityHeadersHandler(baseDomain string) map[string]interface{} {
	csp := "default-src 'self'"
	if baseDomain != "" {
		csp = fmt.Sprintf("default-src 'self' https://*.%s; frame-ancestors 'self' https://*.%s", baseDomain, baseDomain)
	}
	return map[string]interface{}{
		"handler": "headers",
		"response": map[string]interface{}{
			"set": map[string]interface{}{
				"Content-Security-Policy": []string{csp},
			},
		},
	}
}

func reverseProxyHandler(dial string) map[string]interface{} {
	return map[string]interface{}{
		"handler": "reverse_proxy",
		"upstreams": []map[string]interface{}{
			{"dial": dial},
		},
		"headers": map[string]interface{}{
			"request": map[string]interface{}{
				"set": map[string]interface{}{
					"X-Real-IP":         []string{"{http.request.remote.host}"},
					"X-Forwarded-Proto": []string{"{http.request.scheme}"},
				},
			},
		},
	}
}

// authInterceptHandler sends the request to the auth service's forward-auth
// endpoint, preserving its method. A 2xx continues to the next handler in
// the chain; 401/403 redirect to the auth portal's login page with the
// original URL as the return parameter.
func authInterceptHandler(baseDomain string, opts Options) map[string]interface{} {
	loginURL := fmt.Sprintf(
		"https://%s/login?redirect={http.request.scheme}%%3A%%2F%%2F{http.request.host}{http.request.uri}",
		SystemDomain(AuthLabel, baseDomain),
	)
	return map[string]interface{}{
		"handler": "reverse_proxy",
		"upstreams": []map[string]interface{}{
			{"dial": opts.AuthUpstream},
		},
		"rewrite": map[string]interface{}{
			"uri": opts.AuthForwardPath,
		},
		"handle_response": []interface{}{
			map[string]interface{}{
				"match":  map[string]interface{}{"status_code": []int{2}},
				"routes": []interface{}{},
			},
			map[string]interface{}{
				"match": map[string]interface{}{"status_code": []int{401, 403}},
				"routes": []interface{}{
					map[string]interface{}{
						"handle": []interface{}{
							map[string]interface{}{
								"handler":     "static_response",
								"status_code": 302,
								"headers": map[string]interface{}{
									"Location": []string{loginURL},
								},
							},
						},
					},
				},
			},
		},
	}
}

func subrouteHandler(routes []interface{}) map[string]interface{} {
	return map[string]interface{}{
		"handler": "subroute",
		"routes":  routes,
	}
}

func staticResponseHandler(status int) map[string]interface{} {
	return map[string]interface{}{
		"handler":     "static_response",
		"status_code": status,
	}
}

func isDevEnvironment(env registry.Environment) bool {
	return strings.Contains(strings.ToLower(env.ID), "dev") ||
		strings.Contains(strings.ToLower(env.Name), "dev")
}
