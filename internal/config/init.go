package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
)

const (
	editURL   = "https://github.com/stephenafamo/bob/tree/main/website/"
	githubURL = "https://github.com/stephenafamo/bob"
)

// Default returns the configuration of the Bob documentation website.
// The analytics website id is read from the environment so the file can be
// committed without it.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Title:         "Bob",
			Tagline:       "Go SQL Access Toolkit",
			URL:           "https://bob.stephenafamo.com",
			BaseURL:       "/",
			Favicon:       "img/favicon.ico",
			Organization:  "stephenafamo",
			Project:       "bob",
			OnBrokenLinks: "throw",
		},
		I18n: I18nConfig{DefaultLocale: "en", Locales: []string{"en"}},
		Docs: []DocsInstance{
			{ID: DefaultDocsID, Path: "./docs", RouteBasePath: "docs", SidebarPath: "./sidebars.js", EditURL: editURL},
			{ID: "comparisons", Path: "./vs", RouteBasePath: "vs", SidebarPath: "./sidebars.js", EditURL: editURL},
		},
		Theme: ThemeConfig{
			Navbar: Navbar{
				Title: "Bob - Go SQL Access Toolkit",
				Items: []NavbarItem{
					{To: "docs", Label: "Introduction", ActiveBaseRegex: "docs[/]?$", Position: "left"},
					{To: "docs/query-builder/intro", Label: "Builder", ActiveBaseRegex: "docs/query-builder", Position: "left"},
					{To: "docs/sql-executor/intro", Label: "Executor", ActiveBaseRegex: "docs/sql-executor", Position: "left"},
					{To: "docs/models/intro", Label: "Models", ActiveBaseRegex: "docs/models", Position: "left"},
					{To: "docs/code-generation/intro", Label: "Generator", ActiveBaseRegex: "docs/code-generation", Position: "left"},
					{
						Type:     "dropdown",
						Label:    "VS Others",
						Position: "left",
						Items: []NavbarItem{
							{Label: "GORM", To: "vs/gorm"},
							{Label: "Ent", To: "vs/ent"},
							{Label: "SQLBoiler", To: "vs/sqlboiler"},
						},
					},
					{Href: githubURL, Label: "GitHub", Position: "right"},
					{Href: "https://pkg.go.dev/github.com/stephenafamo/bob", Label: "Reference", Position: "right"},
				},
			},
			Footer: Footer{
				Style:     "dark",
				Copyright: "Copyright © {year} Stephen Afam-Osemene. Built with Docusaurus.",
			},
			Prism: PrismConfig{Theme: "github", DarkTheme: "dracula"},
		},
		Plugins: []PluginEntry{
			{Name: "simple-analytics", Options: map[string]any{"websiteID": "${BOBDOCS_WEBSITE_ID}"}},
			{Name: "tailwind"},
		},
		Output: OutputConfig{Directory: "./build"},
	}
}

// WriteDefault writes Default() as YAML to path. An existing file is only
// replaced when force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}
