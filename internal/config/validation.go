package config

import (
	"fmt"
	"net/url"

	"github.com/stephenafamo/bobdocs/internal/foundation"
)

var configValidators = foundation.NewValidatorChain(
	validateSite,
	validateDocs,
	validateTheme,
	validatePlugins,
)

// Validate checks the structural rules of a configuration. Plugin options are
// not inspected here; every plugin validates its own options when loaded.
func Validate(cfg *Config) error {
	return configValidators.Validate(cfg).ToError()
}

func validateSite(cfg *Config) foundation.ValidationResult {
	res := foundation.Valid()
	if cfg.Site.Title == "" {
		res = res.Combine(foundation.Invalid(foundation.NewFieldError("site.title", "required", "is required")))
	}

	u, err := url.Parse(cfg.Site.URL)
	switch {
	case cfg.Site.URL == "":
		res = res.Combine(foundation.Invalid(foundation.NewFieldError("site.url", "required", "is required")))
	case err != nil:
		res = res.Combine(foundation.Invalid(foundation.NewFieldError("site.url", "invalid", err.Error())))
	case u.Scheme != "http" && u.Scheme != "https":
		res = res.Combine(foundation.Invalid(foundation.NewFieldError("site.url", "invalid", "must be an absolute http(s) URL")))
	case u.Hostname() == "":
		res = res.Combine(foundation.Invalid(foundation.NewFieldError("site.url", "invalid", "must include a hostname")))
	}

	return res.Combine(foundation.OneOf("site.on_broken_links", []string{"throw", "warn", "ignore"})(cfg.Site.OnBrokenLinks))
}

func validateDocs(cfg *Config) foundation.ValidationResult {
	res := foundation.Valid()
	seen := make(map[string]struct{}, len(cfg.Docs))
	for i, d := range cfg.Docs {
		field := fmt.Sprintf("docs[%d]", i)
		if d.Path == "" {
			res = res.Combine(foundation.Invalid(foundation.NewFieldError(field+".path", "required", "is required")))
		}
		if _, dup := seen[d.ID]; dup {
			res = res.Combine(foundation.Invalid(foundation.NewFieldError(field+".id", "duplicate", fmt.Sprintf("duplicate docs id %q", d.ID))))
		}
		seen[d.ID] = struct{}{}
	}
	return res
}

func validateTheme(cfg *Config) foundation.ValidationResult {
	res := foundation.OneOf("theme.footer.style", []string{"dark", "light"})(cfg.Theme.Footer.Style)
	for i, item := range cfg.Theme.Navbar.Items {
		res = res.Combine(validateNavbarItem(fmt.Sprintf("theme.navbar.items[%d]", i), item))
	}
	return res
}

func validateNavbarItem(field string, item NavbarItem) foundation.ValidationResult {
	res := foundation.Valid()
	if item.Label == "" {
		res = res.Combine(foundation.Invalid(foundation.NewFieldError(field+".label", "required", "is required")))
	}
	if item.Position != "" {
		res = res.Combine(foundation.OneOf(field+".position", []string{"left", "right"})(item.Position))
	}
	if item.IsDropdown() {
		for i, child := range item.Items {
			res = res.Combine(validateNavbarItem(fmt.Sprintf("%s.items[%d]", field, i), child))
		}
		return res
	}
	if item.To == "" && item.Href == "" {
		res = res.Combine(foundation.Invalid(foundation.NewFieldError(field, "required", "needs either to or href")))
	}
	return res
}

func validatePlugins(cfg *Config) foundation.ValidationResult {
	res := foundation.Valid()
	for i, p := range cfg.Plugins {
		if p.Name == "" {
			res = res.Combine(foundation.Invalid(foundation.NewFieldError(fmt.Sprintf("plugins[%d].name", i), "required", "is required")))
		}
	}
	return res
}
