package registry

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	labelRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	slugRegex  = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
)

// NormalizeBaseDomain lower-cases and validates a base domain. Every label
// must be a valid RFC host label.
func NormalizeBaseDomain(domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" {
		return "", fmt.Errorf("base domain must not be empty")
	}
	if err := validateHostname(domain); err != nil {
		return "", err
	}
	return domain, nil
}

func validateHostname(domain string) error {
	if len(domain) > 253 {
		return fmt.Errorf("domain %q exceeds 253 characters", domain)
	}
	for _, label := range strings.Split(domain, ".") {
		if !labelRegex.MatchString(label) {
			return fmt.Errorf("invalid host label %q in %q", label, domain)
		}
	}
	return nil
}

// ValidateSubdomain checks a single subdomain label.
func ValidateSubdomain(subdomain string) error {
	if !labelRegex.MatchString(subdomain) {
		return fmt.Errorf("invalid subdomain %q", subdomain)
	}
	return nil
}

// ValidateSlug checks a URL-safe slug.
func ValidateSlug(slug string) error {
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("invalid slug %q", slug)
	}
	return nil
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("target port %d out of range [1,65535]", port)
	}
	return nil
}

func (e *Environment) validate() error {
	if e.ID == "" {
		return fmt.Errorf("environment id must not be empty")
	}
	if e.Prefix != "" {
		if err := ValidateSubdomain(e.Prefix); err != nil {
			return fmt.Errorf("environment %q: %w", e.ID, err)
		}
	}
	if e.APIPrefix != "" {
		if err := ValidateSubdomain(e.APIPrefix); err != nil {
			return fmt.Errorf("environment %q: %w", e.ID, err)
		}
	}
	return nil
}

func (e *Endpoint) validate() error {
	if e.TargetHost == "" {
		return fmt.Errorf("target host must not be empty")
	}
	return validatePort(e.TargetPort)
}

func (a *Application) validate() error {
	if err := ValidateSlug(a.Slug); err != nil {
		return fmt.Errorf("application: %w", err)
	}
	for envID, set := range a.Endpoints {
		if set.Frontend == nil && len(set.APIs) == 0 {
			return fmt.Errorf("application %q: environment %q has no endpoints", a.Slug, envID)
		}
		if set.Frontend != nil {
			if err := set.Frontend.validate(); err != nil {
				return fmt.Errorf("application %q frontend (%s): %w", a.Slug, envID, err)
			}
		}
		seen := map[string]bool{}
		for _, api := range set.APIs {
			if err := api.validate(); err != nil {
				return fmt.Errorf("application %q api (%s): %w", a.Slug, envID, err)
			}
			if api.Slug != "" {
				if err := ValidateSlug(api.Slug); err != nil {
					return fmt.Errorf("application %q api (%s): %w", a.Slug, envID, err)
				}
			}
			if seen[api.Slug] {
				return fmt.Errorf("application %q: duplicate api slug %q in environment %q", a.Slug, api.Slug, envID)
			}
			seen[api.Slug] = true
		}
	}
	return nil
}

func (h *Host) validate() error {
	if (h.Subdomain == "") == (h.CustomDomain == "") {
		return fmt.Errorf("host must set exactly one of subdomain or customDomain")
	}
	if h.Subdomain != "" {
		if err := ValidateSubdomain(h.Subdomain); err != nil {
			return err
		}
	}
	if h.CustomDomain != "" {
		if err := validateHostname(strings.ToLower(h.CustomDomain)); err != nil {
			return err
		}
	}
	if h.TargetHost == "" {
		return fmt.Errorf("host target host must not be empty")
	}
	return validatePort(h.TargetPort)
}

// Validate performs the structural checks on the whole document: entity
// field formats, port ranges, id/slug uniqueness, at most one default
// environment and referential integrity of application endpoint maps.
// Cross-entity domain collisions are checked by the compiler, which owns
// domain derivation.
func (r *Registry) Validate() error {
	if r.BaseDomain != "" {
		if err := validateHostname(r.BaseDomain); err != nil {
			return fmt.Errorf("base domain: %w", err)
		}
	}

	envIDs := map[string]bool{}
	defaults := 0
	for i := range r.Environments {
		env := &r.Environments[i]
		if err := env.validate(); err != nil {
			return err
		}
		if envIDs[env.ID] {
			return fmt.Errorf("duplicate environment id %q", env.ID)
		}
		envIDs[env.ID] = true
		if env.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("at most one environment may be the default, found %d", defaults)
	}

	slugs := map[string]bool{}
	for i := range r.Applications {
		app := &r.Applications[i]
		if err := app.validate(); err != nil {
			return err
		}
		if slugs[app.Slug] {
			return fmt.Errorf("duplicate application slug %q", app.Slug)
		}
		slugs[app.Slug] = true
		for envID := range app.Endpoints {
			if !envIDs[envID] {
				return fmt.Errorf("application %q references unknown environment %q", app.Slug, envID)
			}
		}
	}

	hostIDs := map[string]bool{}
	for i := range r.Hosts {
		host := &r.Hosts[i]
		if err := host.validate(); err != nil {
			return fmt.Errorf("host %q: %w", host.ID, err)
		}
		if hostIDs[host.ID] {
			return fmt.Errorf("duplicate host id %q", host.ID)
		}
		hostIDs[host.ID] = true
	}

	return nil
}
