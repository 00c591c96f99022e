package slug

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxLength is the maximum length of a custom slug.
	MaxLength = 30
	// MaxURLLength is the maximum length of a destination URL.
	MaxURLLength = 2048
)

// reserved slugs shadow service routes and can never be claimed.
var reserved = map[string]struct{}{
	"api":     {},
	"docs":    {},
	"swagger": {},
}

var (
	slugRe   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	validate = validator.New()
)

// NormalizeURL trims the candidate and prepends "https://" when it does not
// start with an http or https scheme.
func NormalizeURL(candidate string) string {
	s := strings.TrimSpace(candidate)

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return s
	}

	return "https://" + s
}

// IsValidURL reports whether the normalized candidate is an absolute http(s) URL with a host.
func IsValidURL(candidate string) bool {
	if strings.TrimSpace(candidate) == "" {
		return false
	}

	s := NormalizeURL(candidate)
	if len(s) > MaxURLLength {
		return false
	}

	if validate.Var(s, "http_url") != nil {
		return false
	}

	// http_url accepts "https://:80", whose host is only a port.
	u, err := url.Parse(s)
	return err == nil && u.Hostname() != ""
}

// IsValidSlug reports whether candidate is non-empty, at most MaxLength long and
// consists only of letters, digits, hyphens and underscores.
func IsValidSlug(candidate string) bool {
	return len(candidate) > 0 && len(candidate) <= MaxLength && slugRe.MatchString(candidate)
}

// IsReserved reports whether the slug collides with a service route.
func IsReserved(candidate string) bool {
	_, ok := reserved[candidate]
	return ok
}

// RegisterValidations registers the "slug" tag on v.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return IsValidSlug(fl.Field().String())
	})
}
