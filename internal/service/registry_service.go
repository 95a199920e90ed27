package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/localplatform/homeroute-sub001/internal/caddy"
	"github.com/localplatform/homeroute-sub001/internal/certcheck"
	"github.com/localplatform/homeroute-sub001/internal/compiler"
	"github.com/localplatform/homeroute-sub001/internal/logging"
	"github.com/localplatform/homeroute-sub001/internal/registry"
)

// Revision conflicts reload-and-retry this many times before giving up.
const maxMutateAttempts = 3

// MutationResult reports a persisted registry change and whether the
// compiled configuration made it to the live proxy. A failed push does not
// roll back the stored change: Applied is false and ApplyError carries the
// reason, so the dashboard can show "saved but not applied".
type MutationResult struct {
	Entity     interface{} `json:"entity,omitempty"`
	Revision   int64       `json:"revision"`
	Applied    bool        `json:"applied"`
	ApplyError string      `json:"applyError,omitempty"`
}

// RegistryService is the mutation and status surface consumed by the API
// handlers. Every successful mutation triggers a synchronous
// recompile-and-push.
type RegistryService interface {
	Get(ctx context.Context) (*registry.Registry, error)

	SetBaseDomain(ctx context.Context, domain string) (*MutationResult, error)
	SetCloudflare(ctx context.Context, enabled bool) (*MutationResult, error)

	CreateEnvironment(ctx context.Context, env registry.Environment) (*MutationResult, error)
	UpdateEnvironment(ctx context.Context, id string, env registry.Environment) (*MutationResult, error)
	DeleteEnvironment(ctx context.Context, id string) (*MutationResult, error)

	CreateApplication(ctx context.Context, app registry.Application) (*MutationResult, error)
	UpdateApplication(ctx context.Context, slug string, app registry.Application) (*MutationResult, error)
	DeleteApplication(ctx context.Context, slug string) (*MutationResult, error)

	CreateHost(ctx context.Context, host registry.Host) (*MutationResult, error)
	UpdateHost(ctx context.Context, id string, host registry.Host) (*MutationResult, error)
	DeleteHost(ctx context.Context, id string) (*MutationResult, error)

	CompileRoutes(ctx context.Context) ([]compiler.Route, error)
	ProxyStatus(ctx context.Context) caddy.Status
	CertificateStatus(ctx context.Context) ([]certcheck.Result, error)
}

type registryService struct {
	logger  *logging.Logger
	store   *registry.Store
	proxy   caddy.Client
	monitor *certcheck.Monitor
	opts    compiler.Options
	tlsOpts compiler.TLSOptions
}

// NewRegistryService wires the store, the proxy control client and the
// certificate monitor into the mutation pipeline.
func NewRegistryService(store *registry.Store, proxy caddy.Client, monitor *certcheck.Monitor, opts compiler.Options, tlsOpts compiler.TLSOptions) RegistryService {
	return &registryService{
		logger:  logging.GetGlobalLogger(),
		store:   store,
		proxy:   proxy,
		monitor: monitor,
		opts:    opts,
		tlsOpts: tlsOpts,
	}
}

func (s *registryService) Get(ctx context.Context) (*registry.Registry, error) {
	return s.store.Load()
}

// mutate is the single mutation pipeline: load, apply, validate, save,
// compile, push. Validation failures leave the stored registry untouched.
// A revision conflict means another writer won the race; the mutation is
// re-applied against the fresh document.
func (s *registryService) mutate(ctx context.Context, fn func(reg *registry.Registry) (interface{}, error)) (*MutationResult, error) {
	var reg *registry.Registry
	var entity interface{}

	for attempt := 1; ; attempt++ {
		var err error
		reg, err = s.store.Load()
		if err != nil {
			return nil, err
		}

		entity, err = fn(reg)
		if err != nil {
			return nil, err
		}

		// Wildcard subjects follow the environments around.
		if reg.Cloudflare.Enabled {
			reg.Cloudflare.WildcardDomains = compiler.DeriveWildcardDomains(reg)
		}

		if err := reg.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		if err := compiler.ValidateDomains(reg); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}

		err = s.store.Save(reg)
		if err == nil {
			break
		}
		if !errors.Is(err, registry.ErrRevisionConflict) || attempt >= maxMutateAttempts {
			return nil, err
		}
		s.logger.Warn("Registry revision conflict, retrying mutation (attempt %d/%d)", attempt, maxMutateAttempts)
	}

	result := &MutationResult{Entity: entity, Revision: reg.Revision, Applied: true}

	// The stored state is authoritative; a push failure is reported, not
	// rolled back.
	if err := s.applyToProxy(ctx, reg); err != nil {
		s.logger.Error("Registry saved but proxy push failed: %v", err)
		result.Applied = false
		result.ApplyError = err.Error()
	}

	return result, nil
}

func (s *registryService) applyToProxy(ctx context.Context, reg *registry.Registry) error {
	routes := compiler.Compile(reg, s.opts)
	tlsApp := compiler.TLSAutomation(reg, routes, s.tlsOpts)
	return s.proxy.Push(ctx, compiler.Assemble(routes, tlsApp))
}

func (s *registryService) SetBaseDomain(ctx context.Context, domain string) (*MutationResult, error) {
	return s.mutate(ctx, func(reg *registry.Registry) (interface{}, error) {
		normalized, err := registry.NormalizeBaseDomain(domain)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		reg.BaseDomain = normalized
		return normalized, nil
	})
}

func (s *registryService) SetCloudflare(ctx context.Context, enabled bool) (*MutationResult, error) {
	return s.mutate(ctx, func(reg *registry.Registry) (interface{}, error) {
		if enabled && s.tlsOpts.CloudflareToken == "" {
			return nil, fmt.Errorf("%w: cloudflare provider requires CLOUDFLARE_API_TOKEN", ErrValidation)
		}
		reg.Cloudflare.Enabled = enabled
		if !enabled {
			reg.Cloudflare.WildcardDomains = nil
		}
		return reg.Cloudflare, nil
	})
}

func (s *registryService) CreateEnvironment(ctx context.Context, env registry.Environment) (*MutationResult, error) {
	return s.mutate(ctx, func(reg *registry.Registry) (interface{}, error) {
		if env.ID == "" {
			return nil, fmt.Errorf("%w: environment id is required", ErrValidation)
		}
		if reg.FindEnvironment(env.ID) != nil {
			return nil, fmt.Errorf("%w: environment %q already exists", ErrConflict, env.ID)
		}
		if env.IsDefault {
			clearDefaultEnvironment(reg)
		}
		reg.Environments = append(reg.Environments, env)
		return env, nil
	})
}

func (s *registryService) UpdateEnvironment(ctx context.Context, id string, env registry.Environment) (*MutationResult, error) {
	return s.mutate(ctx, func(reg *registry.Registry) (interface{}, error) {
		existing := reg.FindEnvironment(id)
		if existing == nil {
			return nil, fmt.Errorf("%w: environment %q", ErrNotFound, id)
		}
		if env.IsDefault {
			clearDefaultEnvironment(reg)
		}
		env.ID = id
		*existing = env
		return env, nil
	})
}

func (s *registryService) DeleteEnvironment(ctx context.Context, id string) (*MutationResult, error) {
	return s.mutate(ctx, func(reg *registry.Registry) (interface{}, error) {
		if reg.FindEnvironment(id) == nil {
			return nil, fmt.Errorf("%w: environment %q", ErrNotFound, id)
		}
		if refs := reg.EnvironmentReferences(id); refs > 0 {
			return nil, fmt.Errorf("%w: environment %q is referenced by %d application(s)", ErrConflict, id, refs)
		}
		for i := range reg.Environments {
			if reg.Environments[i].ID == id {
				reg.Environments = append(reg.Environments[:i], reg.Environments[i+1:]...)
				break
			}
		}
		return id, nil
	})
}

func (s *registryService) CreateApplication(ctx context.Context, app registry.Application) (*MutationResult, error) {
	return s.mutate(ctx, func(reg *registry.Registry) (interface{}, error) {
		if reg.FindApplication(app.Slug) != nil {
			return nil, fmt.Errorf("%w: application %q already exists", ErrConflict, app.Slug)
		}
		if app.ID == "" {
			app.ID = uuid.NewString()
		}
		if app.Endpoints == nil {
			app.Endpoints = map[string]registry.EndpointSet{}
		}
		reg.Applications = append(reg.Applications, app)
		return app, nil
	})
}

func (s *registryService) UpdateApplication(ctx context.Context, slug string, app registry.Application) (*MutationResult, error) {
	return s.mutate(ctx, func(reg *registry.Registry) (interface{}, error) {
		existing := reg.FindApplication(slug)
		if existing == nil {
			return nil, fmt.Errorf("%w: application %q", ErrNotFound, slug)
		}
		app.ID = existing.ID
		app.Slug = slug
		if app.Endpoints == nil {
			app.Endpoints = map[string]registry.EndpointSet{}
		}
		*existing = app
		return app, nil
	})
}

func (s *registryService) DeleteApplication(ctx context.Context, slug string) (*MutationResult, error) {
	return s.mutate(ctx, func(reg *registry.Registry) (interface{}, error) {
		if reg.FindApplication(slug) == nil {
			return nil, fmt.Errorf("%w: application %q", ErrNotFound, slug)
		}
		for i := range reg.Applications {
			if reg.Applications[i].Slug == slug {
				reg.Applications = append(reg.Applications[:i], reg.Applications[i+1:]...)
				break
			}
		}
		return slug, nil
	})
}

func (s *registryService) CreateHost(ctx context.Context, host registry.Host) (*MutationResult, error) {
	return s.mutate(ctx, func(reg *registry.Registry) (interface{}, error) {
		if host.ID == "" {
			host.ID = uuid.NewString()
		}
		if reg.FindHost(host.ID) != nil {
			return nil, fmt.Errorf("%w: host %q already exists", ErrConflict, host.ID)
		}
		reg.Hosts = append(reg.Hosts, host)
		return host, nil
	})
}

func (s *registryService) UpdateHost(ctx context.Context, id string, host registry.Host) (*MutationResult, error) {
	return s.mutate(ctx, func(reg *registry.Registry) (interface{}, error) {
		existing := reg.FindHost(id)
		if existing == nil {
			return nil, fmt.Errorf("%w: host %q", ErrNotFound, id)
		}
		host.ID = id
		*existing = host
		return host, nil
	})
}

func (s *registryService) DeleteHost(ctx context.Context, id string) (*MutationResult, error) {
	return s.mutate(ctx, func(reg *registry.Registry) (interface{}, error) {
		if reg.FindHost(id) == nil {
			return nil, fmt.Errorf("%w: host %q", ErrNotFound, id)
		}
		for i := range reg.Hosts {
			if reg.Hosts[i].ID == id {
				reg.Hosts = append(reg.Hosts[:i], reg.Hosts[i+1:]...)
				break
			}
		}
		return id, nil
	})
}

// CompileRoutes previews the current compiled configuration without
// pushing it.
func (s *registryService) CompileRoutes(ctx context.Context) ([]compiler.Route, error) {
	reg, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return compiler.Compile(reg, s.opts), nil
}

func (s *registryService) ProxyStatus(ctx context.Context) caddy.Status {
	return s.proxy.Status(ctx)
}

// CertificateStatus probes every configured, enabled domain. Probe failures
// are per-domain results; only a registry load failure is an error.
func (s *registryService) CertificateStatus(ctx context.Context) ([]certcheck.Result, error) {
	reg, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return s.monitor.ProbeAll(ctx, compiler.DomainEntries(reg)), nil
}

func clearDefaultEnvironment(reg *registry.Registry) {
	for i := range reg.Environments {
		reg.Environments[i].IsDefault = false
	}
}
