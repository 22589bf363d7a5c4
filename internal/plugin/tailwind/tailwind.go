// Package tailwind adds Tailwind CSS to the PostCSS pipeline.
package tailwind

import (
	"log/slog"

	"github.com/stephenafamo/bobdocs/internal/plugin"
)

// Name is the plugin name used in the site configuration.
const Name = "tailwind"

// PostCSS plugins appended, in order.
const (
	PostCSSTailwind     = "tailwindcss"
	PostCSSAutoprefixer = "autoprefixer"
)

func init() {
	plugin.MustRegister(Name, New)
}

// Plugin has no options of its own.
type Plugin struct{}

var _ plugin.PostCSSConfigurer = Plugin{}

// New is the plugin factory. Options are ignored.
func New(lc plugin.LoadContext, options map[string]any) (plugin.Plugin, error) {
	if len(options) > 0 && lc.Logger != nil {
		lc.Logger.Debug("Ignoring plugin options", slog.Int("count", len(options)))
	}
	return Plugin{}, nil
}

func (Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        Name,
		Version:     "v1.0.0",
		Type:        plugin.PluginTypeStyling,
		Description: "Registers tailwindcss and autoprefixer with PostCSS",
	}
}

// ConfigurePostCSS appends tailwindcss then autoprefixer.
func (Plugin) ConfigurePostCSS(opts plugin.PostCSSOptions) plugin.PostCSSOptions {
	return opts.WithPlugin(PostCSSTailwind).WithPlugin(PostCSSAutoprefixer)
}
