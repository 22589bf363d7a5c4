package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stephenafamo/bobdocs/internal/plugin/analytics"
	"github.com/stephenafamo/bobdocs/internal/site"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Env string `name:"env" help:"Build environment, e.g. production or development (overrides BOBDOCS_ENV and NODE_ENV)"`
}

func (c *CheckCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, env, err := loadConfig(g, root, c.Env)
	if err != nil {
		return err
	}

	report, err := site.NewBuilder(cfg, env).WithLogger(g.Logger).Check(ctx)
	if err != nil {
		return err
	}

	w := g.Stdout
	_, _ = fmt.Fprintf(w, "Configuration OK: %s\n", cfg)
	_, _ = fmt.Fprintf(w, "Environment: %s\n", env)
	for i, p := range report.Plugins {
		_, _ = fmt.Fprintf(w, "Plugin %s %s (%s) hooks=%s\n", p.Name, p.Version, p.Type, strings.Join(p.Hooks, ","))
		if a, ok := report.Instances()[i].(*analytics.Plugin); ok {
			e := a.Endpoint()
			_, _ = fmt.Fprintf(w, "  collect: %s\n  hostname: %s\n", e.CollectURL, e.TenantHostname)
		}
	}
	if len(report.PostCSSPlugins) > 0 {
		_, _ = fmt.Fprintf(w, "PostCSS plugins: %s\n", strings.Join(report.PostCSSPlugins, ", "))
	}
	if cfg.Theme.Footer.Copyright != "" {
		_, _ = fmt.Fprintf(w, "Footer: %s\n", cfg.Theme.Footer.RenderCopyright(time.Now()))
	}
	return nil
}
