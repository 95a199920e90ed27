package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	subdomainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	slugRegex      = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
)

// RegisterValidators registers custom validators
func RegisterValidators(v *validator.Validate) {
	v.RegisterValidation("subdomain", validateSubdomain)
	v.RegisterValidation("slug", validateSlug)
}

// validateSubdomain checks a single RFC host label
func validateSubdomain(fl validator.FieldLevel) bool {
	return subdomainRegex.MatchString(fl.Field().String())
}

// validateSlug checks a URL-safe slug
func validateSlug(fl validator.FieldLevel) bool {
	return slugRegex.MatchString(fl.Field().String())
}
