// Package plugin defines the contract between the bobdocs build driver and
// its plugins.
//
// A plugin is created once per build by its Factory from the raw options in
// the site configuration. The driver then calls whichever lifecycle hooks the
// plugin implements, each exactly once:
//
//	ContentLoaded      after configuration is loaded; may publish global data
//	InjectHTMLTags     returns markup that is added to every generated page
//	ConfigurePostCSS   appends to the plugin list of the CSS pipeline
//
// Plugins hold no state across builds.
package plugin

import (
	"context"
	"fmt"
)

// Plugin is implemented by every bobdocs plugin.
type Plugin interface {
	// Metadata returns the plugin's identity.
	Metadata() Metadata
}

// ContentLoader is called once after content is loaded. Plugins use it to
// publish read-only data for the rendered pages.
type ContentLoader interface {
	Plugin
	ContentLoaded(ctx context.Context, actions *Actions) error
}

// HTMLTagsInjector returns markup for the page template. The driver calls it
// once per build and applies the result to every page.
type HTMLTagsInjector interface {
	Plugin
	InjectHTMLTags(ctx context.Context) (HTMLTags, error)
}

// PostCSSConfigurer edits the options forwarded to the CSS post-processor.
type PostCSSConfigurer interface {
	Plugin
	ConfigurePostCSS(opts PostCSSOptions) PostCSSOptions
}

// Metadata describes a plugin's identity.
type Metadata struct {
	// Name is the identifier used in the site configuration (e.g. "simple-analytics").
	Name string

	// Version is the semantic version (e.g. "v1.0.0").
	Version string

	Type PluginType

	Description string
}

// String returns a human-readable representation of the plugin metadata.
func (m Metadata) String() string {
	return fmt.Sprintf("%s@%s (%s)", m.Name, m.Version, m.Type)
}

// Validate checks if the plugin metadata is valid.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid plugin type: %s", m.Type)
	}
	return nil
}

// Hook names used in logs and reports.
const (
	HookContentLoaded    = "content_loaded"
	HookInjectHTMLTags   = "inject_html_tags"
	HookConfigurePostCSS = "configure_postcss"
)

// Hooks lists the lifecycle hooks p implements, in call order.
func Hooks(p Plugin) []string {
	var hooks []string
	if _, ok := p.(ContentLoader); ok {
		hooks = append(hooks, HookContentLoaded)
	}
	if _, ok := p.(HTMLTagsInjector); ok {
		hooks = append(hooks, HookInjectHTMLTags)
	}
	if _, ok := p.(PostCSSConfigurer); ok {
		hooks = append(hooks, HookConfigurePostCSS)
	}
	return hooks
}
