package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localplatform/homeroute-sub001/internal/caddy"
	"github.com/localplatform/homeroute-sub001/internal/certcheck"
	"github.com/localplatform/homeroute-sub001/internal/compiler"
	"github.com/localplatform/homeroute-sub001/internal/registry"
)

// fakeProxy records pushes and can be made to fail.
type fakeProxy struct {
	pushes  []map[string]interface{}
	pushErr error
	status  caddy.Status
}

func (f *fakeProxy) Push(ctx context.Context, config map[string]interface{}) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, config)
	return nil
}

func (f *fakeProxy) Status(ctx context.Context) caddy.Status {
	return f.status
}

func newTestService(t *testing.T, proxy caddy.Client) (RegistryService, *registry.Store) {
	t.Helper()
	store := registry.NewStore(filepath.Join(t.TempDir(), "registry.json"))
	svc := NewRegistryService(store, proxy, certcheck.NewMonitor(),
		compiler.Options{
			DashboardUpstream: "localhost:8080",
			AuthUpstream:      "localhost:8081",
			AuthForwardPath:   "/api/verify",
		},
		compiler.TLSOptions{CloudflareToken: "cf-token"},
	)
	return svc, store
}

func seedRegistry(t *testing.T, svc RegistryService) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.SetBaseDomain(ctx, "home.example.com")
	require.NoError(t, err)

	_, err = svc.CreateEnvironment(ctx, registry.Environment{
		ID: "prod", Name: "Production", Prefix: "", APIPrefix: "api", IsDefault: true,
	})
	require.NoError(t, err)
}

func TestSetBaseDomain_Normalizes(t *testing.T) {
	proxy := &fakeProxy{}
	svc, store := newTestService(t, proxy)

	result, err := svc.SetBaseDomain(context.Background(), "  Home.Example.COM. ")
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, "home.example.com", result.Entity)

	reg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "home.example.com", reg.BaseDomain)
}

func TestSetBaseDomain_InvalidRejected(t *testing.T) {
	proxy := &fakeProxy{}
	svc, store := newTestService(t, proxy)
	seedRegistry(t, svc)
	before, err := store.Load()
	require.NoError(t, err)

	_, err = svc.SetBaseDomain(context.Background(), "not a domain")
	require.ErrorIs(t, err, ErrValidation)

	after, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, before.Revision, after.Revision)
	assert.Equal(t, before.BaseDomain, after.BaseDomain)
}

func TestMutate_PushFailureStillPersists(t *testing.T) {
	proxy := &fakeProxy{}
	svc, store := newTestService(t, proxy)
	seedRegistry(t, svc)

	proxy.pushErr = errors.New("admin API unreachable")
	result, err := svc.CreateHost(context.Background(), registry.Host{
		Subdomain: "nas", TargetHost: "10.0.0.8", TargetPort: 5000, Enabled: true,
	})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Contains(t, result.ApplyError, "admin API unreachable")

	// The stored document is authoritative even when the push failed.
	reg, err := store.Load()
	require.NoError(t, err)
	require.Len(t, reg.Hosts, 1)
	assert.Equal(t, "nas", reg.Hosts[0].Subdomain)
}

func TestCreateApplication_AssignsIDAndPushes(t *testing.T) {
	proxy := &fakeProxy{}
	svc, _ := newTestService(t, proxy)
	seedRegistry(t, svc)
	pushesBefore := len(proxy.pushes)

	result, err := svc.CreateApplication(context.Background(), registry.Application{
		Slug: "budget", Enabled: true,
		Endpoints: map[string]registry.EndpointSet{
			"prod": {Frontend: &registry.Endpoint{TargetHost: "10.0.0.5", TargetPort: 3000}},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Applied)

	app, ok := result.Entity.(registry.Application)
	require.True(t, ok)
	assert.NotEmpty(t, app.ID)
	assert.Len(t, proxy.pushes, pushesBefore+1)
}

func TestCreateApplication_DuplicateSlugConflicts(t *testing.T) {
	proxy := &fakeProxy{}
	svc, _ := newTestService(t, proxy)
	seedRegistry(t, svc)

	app := registry.Application{
		Slug: "budget", Enabled: true,
		Endpoints: map[string]registry.EndpointSet{
			"prod": {Frontend: &registry.Endpoint{TargetHost: "10.0.0.5", TargetPort: 3000}},
		},
	}
	_, err := svc.CreateApplication(context.Background(), app)
	require.NoError(t, err)

	_, err = svc.CreateApplication(context.Background(), app)
	require.ErrorIs(t, err, ErrConflict)
}

func TestCreateHost_DuplicateDomainRejected(t *testing.T) {
	proxy := &fakeProxy{}
	svc, _ := newTestService(t, proxy)
	seedRegistry(t, svc)

	_, err := svc.CreateApplication(context.Background(), registry.Application{
		Slug: "budget", Enabled: true,
		Endpoints: map[string]registry.EndpointSet{
			"prod": {Frontend: &registry.Endpoint{TargetHost: "10.0.0.5", TargetPort: 3000}},
		},
	})
	require.NoError(t, err)

	// budget.home.example.com is already taken by the application frontend.
	_, err = svc.CreateHost(context.Background(), registry.Host{
		Subdomain: "budget", TargetHost: "10.0.0.8", TargetPort: 5000, Enabled: true,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteEnvironment_ReferencedIsConflict(t *testing.T) {
	proxy := &fakeProxy{}
	svc, _ := newTestService(t, proxy)
	seedRegistry(t, svc)

	_, err := svc.CreateApplication(context.Background(), registry.Application{
		Slug: "budget", Enabled: true,
		Endpoints: map[string]registry.EndpointSet{
			"prod": {Frontend: &registry.Endpoint{TargetHost: "10.0.0.5", TargetPort: 3000}},
		},
	})
	require.NoError(t, err)

	_, err = svc.DeleteEnvironment(context.Background(), "prod")
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "referenced by 1 application")

	_, err = svc.DeleteApplication(context.Background(), "budget")
	require.NoError(t, err)

	_, err = svc.DeleteEnvironment(context.Background(), "prod")
	require.NoError(t, err)
}

func TestUpdateEnvironment_NotFound(t *testing.T) {
	proxy := &fakeProxy{}
	svc, _ := newTestService(t, proxy)
	seedRegistry(t, svc)

	_, err := svc.UpdateEnvironment(context.Background(), "staging", registry.Environment{APIPrefix: "api-stg"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateEnvironment_NewDefaultDisplacesOld(t *testing.T) {
	proxy := &fakeProxy{}
	svc, store := newTestService(t, proxy)
	seedRegistry(t, svc)

	_, err := svc.CreateEnvironment(context.Background(), registry.Environment{
		ID: "dev", Name: "Development", Prefix: "dev", APIPrefix: "api-dev", IsDefault: true,
	})
	require.NoError(t, err)

	reg, err := store.Load()
	require.NoError(t, err)
	def := reg.DefaultEnvironment()
	require.NotNil(t, def)
	assert.Equal(t, "dev", def.ID)
	assert.False(t, reg.FindEnvironment("prod").IsDefault)
}

func TestSetCloudflare_RequiresToken(t *testing.T) {
	proxy := &fakeProxy{}
	store := registry.NewStore(filepath.Join(t.TempDir(), "registry.json"))
	svc := NewRegistryService(store, proxy, certcheck.NewMonitor(),
		compiler.Options{DashboardUpstream: "localhost:8080", AuthUpstream: "localhost:8081", AuthForwardPath: "/api/verify"},
		compiler.TLSOptions{}, // no credential configured
	)

	_, err := svc.SetCloudflare(context.Background(), true)
	require.ErrorIs(t, err, ErrValidation)
}

func TestSetCloudflare_DerivesWildcards(t *testing.T) {
	proxy := &fakeProxy{}
	svc, store := newTestService(t, proxy)
	seedRegistry(t, svc)

	_, err := svc.SetCloudflare(context.Background(), true)
	require.NoError(t, err)

	reg, err := store.Load()
	require.NoError(t, err)
	assert.True(t, reg.Cloudflare.Enabled)
	assert.Contains(t, reg.Cloudflare.WildcardDomains, "*.home.example.com")
	assert.Contains(t, reg.Cloudflare.WildcardDomains, "*.api.home.example.com")

	_, err = svc.SetCloudflare(context.Background(), false)
	require.NoError(t, err)

	reg, err = store.Load()
	require.NoError(t, err)
	assert.False(t, reg.Cloudflare.Enabled)
	assert.Empty(t, reg.Cloudflare.WildcardDomains)
}

func TestCompileRoutes_PreviewDoesNotPush(t *testing.T) {
	proxy := &fakeProxy{}
	svc, _ := newTestService(t, proxy)
	seedRegistry(t, svc)
	pushesBefore := len(proxy.pushes)

	routes, err := svc.CompileRoutes(context.Background())
	require.NoError(t, err)
	// System dashboard and auth routes are always present.
	require.GreaterOrEqual(t, len(routes), 2)
	assert.Len(t, proxy.pushes, pushesBefore)
}

func TestMutationResult_RevisionAdvances(t *testing.T) {
	proxy := &fakeProxy{}
	svc, _ := newTestService(t, proxy)

	first, err := svc.SetBaseDomain(context.Background(), "home.example.com")
	require.NoError(t, err)

	second, err := svc.CreateEnvironment(context.Background(), registry.Environment{
		ID: "prod", APIPrefix: "api", IsDefault: true,
	})
	require.NoError(t, err)
	assert.Greater(t, second.Revision, first.Revision)
}
