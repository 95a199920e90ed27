// Package registry owns the persisted routing registry: the base domain,
// environments, applications and standalone hosts that the route compiler
// turns into a live proxy configuration.
package registry

import (
	"encoding/json"
	"fmt"
)

// CurrentSchemaVersion is the schema version written by Save. Older
// documents are migrated forward on load, one version at a time.
const CurrentSchemaVersion = 3

// Deprecated top-level keys stripped on every load. They were derived
// caches persisted by earlier versions and must never round-trip.
var deprecatedKeys = []string{"cachedWildcardDomains", "lastAppliedConfig"}

// Environment represents a deployment environment (prod, staging, dev...).
// Prefix is the subdomain label inserted before the base domain for
// frontends; empty means no extra label. APIPrefix is the label for API
// endpoints.
type Environment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Prefix    string `json:"prefix"`
	APIPrefix string `json:"apiPrefix"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// Endpoint is a proxied target.
type Endpoint struct {
	TargetHost  string `json:"targetHost"`
	TargetPort  int    `json:"targetPort"`
	LocalOnly   bool   `json:"localOnly,omitempty"`
	RequireAuth bool   `json:"requireAuth,omitempty"`
}

// SlottedEndpoint is an API endpoint with an optional slug used to
// disambiguate multiple APIs for the same application/environment.
type SlottedEndpoint struct {
	Endpoint
	Slug string `json:"slug,omitempty"`
}

// EndpointSet holds the endpoints an application exposes in one environment.
type EndpointSet struct {
	Frontend *Endpoint         `json:"frontend,omitempty"`
	APIs     []SlottedEndpoint `json:"apis,omitempty"`
}

// Application is a registered app with per-environment endpoints,
// keyed by environment id.
type Application struct {
	ID        string                 `json:"id"`
	Slug      string                 `json:"slug"`
	Enabled   bool                   `json:"enabled"`
	Endpoints map[string]EndpointSet `json:"endpoints"`
}

// Host is a standalone route not owned by an application. Exactly one of
// Subdomain (composed with the base domain) or CustomDomain (fully
// qualified) must be set.
type Host struct {
	ID           string `json:"id"`
	Subdomain    string `json:"subdomain,omitempty"`
	CustomDomain string `json:"customDomain,omitempty"`
	TargetHost   string `json:"targetHost"`
	TargetPort   int    `json:"targetPort"`
	LocalOnly    bool   `json:"localOnly,omitempty"`
	RequireAuth  bool   `json:"requireAuth,omitempty"`
	Enabled      bool   `json:"enabled"`
}

// CloudflareSettings controls the wildcard DNS-challenge TLS provider.
// WildcardDomains is auto-derived from the environments whenever the
// provider is enabled or environments change.
type CloudflareSettings struct {
	Enabled         bool     `json:"enabled"`
	WildcardDomains []string `json:"wildcardDomains,omitempty"`
}

// Registry is the singleton persisted document. Revision is an optimistic
// concurrency counter: a save whose revision does not match the stored one
// is rejected.
type Registry struct {
	SchemaVersion int                `json:"schemaVersion"`
	Revision      int64              `json:"revision"`
	BaseDomain    string             `json:"baseDomain"`
	Environments  []Environment      `json:"environments"`
	Applications  []Application      `json:"applications"`
	Hosts         []Host             `json:"hosts"`
	Cloudflare    CloudflareSettings `json:"cloudflare"`

	// Extra holds unknown top-level keys so they survive load/save cycles.
	Extra map[string]json.RawMessage `json:"-"`
}

// registryAlias avoids recursing into the custom (un)marshalers.
type registryAlias Registry

// UnmarshalJSON decodes the known fields and stashes every unknown
// top-level key in Extra. Deprecated keys are dropped.
func (r *Registry) UnmarshalJSON(data []byte) error {
	var alias registryAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range knownRegistryKeys() {
		delete(raw, key)
	}
	for _, key := range deprecatedKeys {
		delete(raw, key)
	}
	if len(raw) > 0 {
		alias.Extra = raw
	}

	*r = Registry(alias)
	return nil
}

// MarshalJSON emits the known fields plus any preserved unknown keys.
func (r Registry) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(registryAlias(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range r.Extra {
		if _, exists := merged[key]; !exists {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

func knownRegistryKeys() []string {
	return []string{
		"schemaVersion", "revision", "baseDomain",
		"environments", "applications", "hosts", "cloudflare",
	}
}

// New returns an empty registry at the current schema version.
func New() *Registry {
	return &Registry{
		SchemaVersion: CurrentSchemaVersion,
		Environments:  []Environment{},
		Applications:  []Application{},
		Hosts:         []Host{},
	}
}

// FindEnvironment returns the environment with the given id, or nil.
func (r *Registry) FindEnvironment(id string) *Environment {
	for i := range r.Environments {
		if r.Environments[i].ID == id {
			return &r.Environments[i]
		}
	}
	return nil
}

// DefaultEnvironment returns the environment flagged as default, the first
// environment if none is flagged, or nil when no environments exist.
func (r *Registry) DefaultEnvironment() *Environment {
	for i := range r.Environments {
		if r.Environments[i].IsDefault {
			return &r.Environments[i]
		}
	}
	if len(r.Environments) > 0 {
		return &r.Environments[0]
	}
	return nil
}

// FindApplication returns the application with the given slug, or nil.
func (r *Registry) FindApplication(slug string) *Application {
	for i := range r.Applications {
		if r.Applications[i].Slug == slug {
			return &r.Applications[i]
		}
	}
	return nil
}

// FindHost returns the host with the given id, or nil.
func (r *Registry) FindHost(id string) *Host {
	for i := range r.Hosts {
		if r.Hosts[i].ID == id {
			return &r.Hosts[i]
		}
	}
	return nil
}

// EnvironmentReferences counts the applications that declare endpoints in
// the given environment. Used to block environment deletion.
func (r *Registry) EnvironmentReferences(envID string) int {
	count := 0
	for i := range r.Applications {
		if _, ok := r.Applications[i].Endpoints[envID]; ok {
			count++
		}
	}
	return count
}

// Clone returns a deep copy of the registry so callers can mutate a
// candidate without touching the loaded document.
func (r *Registry) Clone() (*Registry, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to clone registry: %w", err)
	}
	clone := &Registry{}
	if err := json.Unmarshal(data, clone); err != nil {
		return nil, fmt.Errorf("failed to clone registry: %w", err)
	}
	return clone, nil
}
