package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
)

const (
	// DefaultConfigPath is where commands look for the site configuration.
	DefaultConfigPath = "bobdocs.yaml"
	// DefaultDocsID names a docs instance that did not declare an id.
	DefaultDocsID = "default"
)

// Config is the documentation site configuration.
type Config struct {
	Site    SiteConfig     `yaml:"site"`
	I18n    I18nConfig     `yaml:"i18n"`
	Docs    []DocsInstance `yaml:"docs,omitempty"`
	Theme   ThemeConfig    `yaml:"theme"`
	PostCSS PostCSSConfig  `yaml:"postcss"`
	Plugins []PluginEntry  `yaml:"plugins,omitempty"`
	Output  OutputConfig   `yaml:"output"`
}

// SiteConfig holds the site identity. URL is the canonical origin and is
// the source of the hostname analytics plugins report against.
type SiteConfig struct {
	Title         string `yaml:"title"`
	Tagline       string `yaml:"tagline,omitempty"`
	URL           string `yaml:"url"`
	BaseURL       string `yaml:"base_url,omitempty"`
	Favicon       string `yaml:"favicon,omitempty"`
	Organization  string `yaml:"organization,omitempty"`
	Project       string `yaml:"project,omitempty"`
	OnBrokenLinks string `yaml:"on_broken_links,omitempty"` // throw|warn|ignore
}

// I18nConfig mirrors the generator's locale settings.
type I18nConfig struct {
	DefaultLocale string   `yaml:"default_locale"`
	Locales       []string `yaml:"locales"`
}

// DocsInstance is one documentation content root (the main docs, the
// comparison pages, ...).
type DocsInstance struct {
	ID            string `yaml:"id"`
	Path          string `yaml:"path"`
	RouteBasePath string `yaml:"route_base_path,omitempty"`
	SidebarPath   string `yaml:"sidebar_path,omitempty"`
	EditURL       string `yaml:"edit_url,omitempty"`
}

// PostCSSConfig is the base plugin list handed to the CSS pipeline before
// site plugins append to it.
type PostCSSConfig struct {
	Plugins []string `yaml:"plugins,omitempty"`
}

// PluginEntry enables a build plugin. Options are passed to the plugin
// factory untouched; each plugin validates its own options.
type PluginEntry struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

// OutputConfig locates the generated site.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// Load reads, expands and validates the configuration at configPath.
// Environment files are loaded first so ${VAR} references can use them.
func Load(configPath string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML configuration, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(expandEnv(data), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}

	cfg.applyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv substitutes ${VAR} references from the process environment.
// A bare $ is content and stays as written.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(ref[2 : len(ref)-1])))
	})
}

func (c *Config) applyDefaults() {
	if c.Site.BaseURL == "" {
		c.Site.BaseURL = "/"
	}
	if c.Site.OnBrokenLinks == "" {
		c.Site.OnBrokenLinks = "throw"
	}
	if c.I18n.DefaultLocale == "" {
		c.I18n.DefaultLocale = "en"
	}
	if len(c.I18n.Locales) == 0 {
		c.I18n.Locales = []string{c.I18n.DefaultLocale}
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./build"
	}
	if c.Theme.Footer.Style == "" {
		c.Theme.Footer.Style = "dark"
	}
	for i := range c.Docs {
		if c.Docs[i].ID == "" {
			c.Docs[i].ID = DefaultDocsID
		}
		if c.Docs[i].RouteBasePath == "" {
			if c.Docs[i].ID == DefaultDocsID {
				c.Docs[i].RouteBasePath = "docs"
			} else {
				c.Docs[i].RouteBasePath = strings.Trim(c.Docs[i].ID, "/")
			}
		}
	}
}

// SiteHostname returns the hostname part of site.url. Validate guarantees
// it is non-empty for a loaded configuration.
func (c *Config) SiteHostname() string {
	u, err := url.Parse(c.Site.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// PluginNames lists configured plugin names in declaration order.
func (c *Config) PluginNames() []string {
	names := make([]string, 0, len(c.Plugins))
	for _, p := range c.Plugins {
		names = append(names, p.Name)
	}
	return names
}

// String returns a short description used in log lines.
func (c *Config) String() string {
	return fmt.Sprintf("%s (%s, %d plugins)", c.Site.Title, c.Site.URL, len(c.Plugins))
}
