// Package compiler turns the registry into a concrete proxy configuration:
// derived hostnames, an ordered terminal route list and a TLS automation
// policy. Everything in this package is pure; pushing the result to the
// proxy belongs to the caddy package.
package compiler

import (
	"fmt"
	"strings"

	"github.com/localplatform/homeroute-sub001/internal/registry"
)

// Reserved subdomain labels claimed by the system routes. Applications and
// hosts may never compile to these hostnames.
const (
	DashboardLabel = "proxy"
	AuthLabel      = "auth"
)

// EndpointKind tags which endpoint of an application a domain is derived
// for: its frontend, or one of its APIs (optionally disambiguated by slug).
type EndpointKind struct {
	api     bool
	apiSlug string
}

// Frontend is the endpoint kind for an application's frontend.
func Frontend() EndpointKind {
	return EndpointKind{}
}

// API is the endpoint kind for an application API with an optional slug.
func API(slug string) EndpointKind {
	return EndpointKind{api: true, apiSlug: slug}
}

// IsAPI reports whether the kind denotes an API endpoint.
func (k EndpointKind) IsAPI() bool { return k.api }

// Slug returns the API disambiguation slug, empty for frontends.
func (k EndpointKind) Slug() string { return k.apiSlug }

// AppDomain derives the externally visible hostname for an application
// endpoint. Frontends use the environment's prefix, APIs its apiPrefix:
//
//	frontend: {slug}.{prefix}.{base}        (prefix may be empty)
//	api:      {slug}[-{apiSlug}].{apiPrefix}.{base}
//
// Deterministic and side-effect free; this is the single place domain
// uniqueness is checked against.
func AppDomain(appSlug string, kind EndpointKind, env registry.Environment, baseDomain string) string {
	label := appSlug
	infix := env.Prefix
	if kind.api {
		if kind.apiSlug != "" {
			label = appSlug + "-" + kind.apiSlug
		}
		infix = env.APIPrefix
	}
	if infix == "" {
		return label + "." + baseDomain
	}
	return label + "." + infix + "." + baseDomain
}

// HostDomain derives the externally visible hostname for a standalone host:
// its custom domain when set, otherwise {subdomain}.{base}.
func HostDomain(host registry.Host, baseDomain string) string {
	if host.CustomDomain != "" {
		return strings.ToLower(host.CustomDomain)
	}
	return host.Subdomain + "." + baseDomain
}

// SystemDomain composes a reserved system hostname (proxy., auth.).
func SystemDomain(label, baseDomain string) string {
	return label + "." + baseDomain
}

// ValidateDomains checks that every derived domain in the registry is
// unique (hosts and application endpoints share one namespace) and that no
// entity claims a reserved system hostname. Disabled entities are included:
// toggling an entity on must never introduce a collision.
func ValidateDomains(reg *registry.Registry) error {
	seen := map[string]string{}

	claim := func(domain, owner string) error {
		if reg.BaseDomain != "" {
			for _, label := range []string{DashboardLabel, AuthLabel} {
				if domain == SystemDomain(label, reg.BaseDomain) {
					return fmt.Errorf("domain %q is reserved for the %s system route", domain, label)
				}
			}
		}
		if prev, ok := seen[domain]; ok {
			return fmt.Errorf("duplicate domain %q: already claimed by %s", domain, prev)
		}
		seen[domain] = owner
		return nil
	}

	for i := range reg.Applications {
		app := &reg.Applications[i]
		for envID, set := range app.Endpoints {
			env := reg.FindEnvironment(envID)
			if env == nil || reg.BaseDomain == "" {
				continue
			}
			if set.Frontend != nil {
				domain := AppDomain(app.Slug, Frontend(), *env, reg.BaseDomain)
				if err := claim(domain, fmt.Sprintf("application %q (%s frontend)", app.Slug, envID)); err != nil {
					return err
				}
			}
			for _, api := range set.APIs {
				domain := AppDomain(app.Slug, API(api.Slug), *env, reg.BaseDomain)
				if err := claim(domain, fmt.Sprintf("application %q (%s api)", app.Slug, envID)); err != nil {
					return err
				}
			}
		}
	}

	for i := range reg.Hosts {
		host := &reg.Hosts[i]
		if host.Subdomain != "" && reg.BaseDomain == "" {
			continue
		}
		domain := HostDomain(*host, reg.BaseDomain)
		if err := claim(domain, fmt.Sprintf("host %q", host.ID)); err != nil {
			return err
		}
	}

	return nil
}
