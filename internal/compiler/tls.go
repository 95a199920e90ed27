package compiler

import (
	"github.com/localplatform/homeroute-sub001/internal/registry"
)

// TLSOptions carries the issuance inputs that live outside the registry.
type TLSOptions struct {
	// AcmeCA is the ACME directory endpoint.
	AcmeCA string
	// CloudflareToken is the DNS-challenge credential. The wildcard
	// strategy is only selected when the provider is enabled in the
	// registry AND this credential is present.
	CloudflareToken string
}

// DeriveWildcardDomains computes the wildcard certificate subjects for the
// Cloudflare provider: one *.{prefix}.{base} and one *.{apiPrefix}.{base}
// per environment, deduplicated, in environment order. Re-derived whenever
// the provider is enabled and whenever environments change.
func DeriveWildcardDomains(reg *registry.Registry) []string {
	if reg.BaseDomain == "" {
		return nil
	}

	var patterns []string
	seen := map[string]bool{}
	add := func(infix string) {
		pattern := "*." + reg.BaseDomain
		if infix != "" {
			pattern = "*." + infix + "." + reg.BaseDomain
		}
		if !seen[pattern] {
			seen[pattern] = true
			patterns = append(patterns, pattern)
		}
	}

	for _, env := range reg.Environments {
		add(env.Prefix)
		add(env.APIPrefix)
	}
	return patterns
}

// TLSAutomation builds the certificate automation policy for a compiled
// configuration. With the Cloudflare provider enabled and a credential
// present it emits a single wildcard DNS-challenge policy over the
// registry's wildcard patterns; otherwise per-exact-hostname ACME issuance
// covering every domain in the route list. The two strategies are never
// mixed in one push.
func TLSAutomation(reg *registry.Registry, routes []Route, opts TLSOptions) map[string]interface{} {
	if reg.Cloudflare.Enabled && opts.CloudflareToken != "" {
		return automationPolicy(reg.Cloudflare.WildcardDomains, map[string]interface{}{
			"module": "acme",
			"ca":     opts.AcmeCA,
			"challenges": map[string]interface{}{
				"dns": map[string]interface{}{
					"provider": map[string]interface{}{
						"name":      "cloudflare",
						"api_token": opts.CloudflareToken,
					},
				},
			},
		})
	}

	return automationPolicy(routeHosts(routes), map[string]interface{}{
		"module": "acme",
		"ca":     opts.AcmeCA,
	})
}

func automationPolicy(subjects []string, issuer map[string]interface{}) map[string]interface{} {
	if subjects == nil {
		subjects = []string{}
	}
	return map[string]interface{}{
		"automation": map[string]interface{}{
			"policies": []interface{}{
				map[string]interface{}{
					"subjects": subjects,
					"issuers":  []interface{}{issuer},
				},
			},
		},
	}
}

// routeHosts extracts every host-match string from a compiled route list,
// preserving order.
func routeHosts(routes []Route) []string {
	var hosts []string
	for _, route := range routes {
		matches, ok := route["match"].([]interface{})
		if !ok {
			continue
		}
		for _, rawMatch := range matches {
			match, ok := rawMatch.(map[string]interface{})
			if !ok {
				continue
			}
			if hostList, ok := match["host"].([]string); ok {
				hosts = append(hosts, hostList...)
			}
		}
	}
	return hosts
}

// Assemble composes the full configuration document pushed to the proxy's
// admin load endpoint: an HTTP server with the compiled routes plus the TLS
// automation block.
func Assemble(routes []Route, tlsApp map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"apps": map[string]interface{}{
			"http": map[string]interface{}{
				"servers": map[string]interface{}{
					"srv0": map[string]interface{}{
						"listen": []string{":80", ":443"},
						"routes": routes,
					},
				},
			},
			"tls": tlsApp,
		},
	}
}
