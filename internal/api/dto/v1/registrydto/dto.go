// Package registrydto defines the request shapes for the registry CRUD
// endpoints and their conversion into the registry model.
package registrydto

import (
	"github.com/localplatform/homeroute-sub001/internal/registry"
)

// SetDomainRequest sets the base domain.
type SetDomainRequest struct {
	BaseDomain string `json:"baseDomain" binding:"required"`
}

// SetCloudflareRequest toggles the wildcard DNS-challenge provider.
type SetCloudflareRequest struct {
	Enabled bool `json:"enabled"`
}

// EnvironmentRequest creates or updates an environment.
type EnvironmentRequest struct {
	ID        string `json:"id" binding:"omitempty,slug"`
	Name      string `json:"name"`
	Prefix    string `json:"prefix" binding:"omitempty,subdomain"`
	APIPrefix string `json:"apiPrefix" binding:"omitempty,subdomain"`
	IsDefault bool   `json:"isDefault"`
}

// ToModel converts the request into a registry environment.
func (r *EnvironmentRequest) ToModel() registry.Environment {
	return registry.Environment{
		ID:        r.ID,
		Name:      r.Name,
		Prefix:    r.Prefix,
		APIPrefix: r.APIPrefix,
		IsDefault: r.IsDefault,
	}
}

// EndpointRequest is one proxied target.
type EndpointRequest struct {
	TargetHost  string `json:"targetHost" binding:"required"`
	TargetPort  int    `json:"targetPort" binding:"required,min=1,max=65535"`
	LocalOnly   bool   `json:"localOnly"`
	RequireAuth bool   `json:"requireAuth"`
}

func (r *EndpointRequest) toModel() registry.Endpoint {
	return registry.Endpoint{
		TargetHost:  r.TargetHost,
		TargetPort:  r.TargetPort,
		LocalOnly:   r.LocalOnly,
		RequireAuth: r.RequireAuth,
	}
}

// SlottedEndpointRequest is an API endpoint with an optional
// disambiguation slug.
type SlottedEndpointRequest struct {
	EndpointRequest
	Slug string `json:"slug" binding:"omitempty,slug"`
}

// EndpointSetRequest holds an application's endpoints for one environment.
type EndpointSetRequest struct {
	Frontend *EndpointRequest         `json:"frontend"`
	APIs     []SlottedEndpointRequest `json:"apis" binding:"omitempty,dive"`
}

// ApplicationRequest creates or updates an application.
type ApplicationRequest struct {
	Slug      string                        `json:"slug" binding:"required,slug"`
	Enabled   bool                          `json:"enabled"`
	Endpoints map[string]EndpointSetRequest `json:"endpoints" binding:"omitempty,dive"`
}

// ToModel converts the request into a registry application.
func (r *ApplicationRequest) ToModel() registry.Application {
	endpoints := map[string]registry.EndpointSet{}
	for envID, set := range r.Endpoints {
		modelSet := registry.EndpointSet{}
		if set.Frontend != nil {
			frontend := set.Frontend.toModel()
			modelSet.Frontend = &frontend
		}
		for _, api := range set.APIs {
			modelSet.APIs = append(modelSet.APIs, registry.SlottedEndpoint{
				Endpoint: api.toModel(),
				Slug:     api.Slug,
			})
		}
		endpoints[envID] = modelSet
	}
	return registry.Application{
		Slug:      r.Slug,
		Enabled:   r.Enabled,
		Endpoints: endpoints,
	}
}

// HostRequest creates or updates a standalone host. Exactly one of
// subdomain or customDomain must be set; the service enforces the XOR.
type HostRequest struct {
	Subdomain    string `json:"subdomain" binding:"omitempty,subdomain"`
	CustomDomain string `json:"customDomain" binding:"omitempty,hostname_rfc1123"`
	TargetHost   string `json:"targetHost" binding:"required"`
	TargetPort   int    `json:"targetPort" binding:"required,min=1,max=65535"`
	LocalOnly    bool   `json:"localOnly"`
	RequireAuth  bool   `json:"requireAuth"`
	Enabled      bool   `json:"enabled"`
}

// ToModel converts the request into a registry host.
func (r *HostRequest) ToModel() registry.Host {
	return registry.Host{
		Subdomain:    r.Subdomain,
		CustomDomain: r.CustomDomain,
		TargetHost:   r.TargetHost,
		TargetPort:   r.TargetPort,
		LocalOnly:    r.LocalOnly,
		RequireAuth:  r.RequireAuth,
		Enabled:      r.Enabled,
	}
}
