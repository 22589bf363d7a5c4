// Package analytics is the Simple Analytics build plugin.
//
// The plugin validates its options, works out the collection endpoint for
// the build environment and renders the tracking markup once. The build
// driver adds that markup before </body> on every generated page:
//
//	opts, err := analytics.ParseOptions(raw)            // ConfigurationError on bad input
//	endpoint := analytics.Resolve(opts, env, hostname)  // pure
//	markup := analytics.Render(endpoint)                // pure
package analytics

import (
	"context"
	"log/slog"

	"github.com/stephenafamo/bobdocs/internal/logfields"
	"github.com/stephenafamo/bobdocs/internal/plugin"
)

const (
	// Name is the plugin name used in the site configuration.
	Name    = "simple-analytics"
	version = "v1.0.0"
)

func init() {
	plugin.MustRegister(Name, New)
}

// Plugin carries the values computed for one build. It is immutable after New.
type Plugin struct {
	options  Options
	endpoint Endpoint
	markup   Markup
}

var (
	_ plugin.ContentLoader    = (*Plugin)(nil)
	_ plugin.HTMLTagsInjector = (*Plugin)(nil)
)

// New is the plugin factory. Invalid options abort here, before any build
// work; the returned error is the ConfigurationError from ValidateOptions.
func New(lc plugin.LoadContext, raw map[string]any) (plugin.Plugin, error) {
	opts, err := ParseOptions(raw)
	if err != nil {
		return nil, err
	}

	logger := lc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if unknown := UnknownOptions(raw); len(unknown) > 0 {
		logger.Debug("Ignoring unknown options", slog.Any("keys", unknown))
	}

	endpoint := Resolve(opts, lc.Environment, lc.SiteHostname)
	logger.Info("Resolved analytics endpoint",
		logfields.Environment(lc.Environment.String()),
		logfields.Endpoint(endpoint.CollectURL),
		logfields.TenantHost(endpoint.TenantHostname))

	return &Plugin{
		options:  opts,
		endpoint: endpoint,
		markup:   Render(endpoint),
	}, nil
}

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        Name,
		Version:     version,
		Type:        plugin.PluginTypeAnalytics,
		Description: "Adds the Simple Analytics script and no-script pixel to every page",
	}
}

// Options returns the validated options.
func (p *Plugin) Options() Options { return p.options }

// Endpoint returns the resolved endpoint.
func (p *Plugin) Endpoint() Endpoint { return p.endpoint }

// Markup returns the rendered markup.
func (p *Plugin) Markup() Markup { return p.markup }

// ContentLoaded publishes the validated options for the rendered pages.
func (p *Plugin) ContentLoaded(_ context.Context, actions *plugin.Actions) error {
	return actions.SetGlobalData(p.options)
}

// InjectHTMLTags returns the script and its no-script fallback, in that order.
func (p *Plugin) InjectHTMLTags(_ context.Context) (plugin.HTMLTags, error) {
	return plugin.HTMLTags{PostBodyTags: p.markup.Fragments()}, nil
}
