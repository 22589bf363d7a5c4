package commands

import (
	"context"
	"time"

	"github.com/stephenafamo/bobdocs/internal/logfields"
	"github.com/stephenafamo/bobdocs/internal/site"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output   string        `short:"o" help:"Rendered site directory (defaults to output.directory)"`
	Env      string        `name:"env" help:"Build environment, e.g. production or development (overrides BOBDOCS_ENV and NODE_ENV)"`
	Debounce time.Duration `help:"Wait this long for changes to settle before rebuilding" default:"500ms"`
}

func (w *WatchCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, env, err := loadConfig(g, root, w.Env)
	if err != nil {
		return err
	}
	outputDir := ResolveOutputDir(w.Output, cfg)

	// Each rebuild reloads the configuration so edits take effect; the
	// environment stays what it was when the command started.
	rebuild := func(ctx context.Context) error {
		cfg, _, err := loadConfig(g, root, w.Env)
		if err != nil {
			return err
		}
		return RunBuild(ctx, g, cfg, env, BuildOptions{OutputDir: outputDir})
	}

	if err := RunBuild(ctx, g, cfg, env, BuildOptions{OutputDir: outputDir}); err != nil {
		g.Logger.Error("Initial build failed", logfields.Error(err))
	}

	watcher, err := site.NewWatcher(root.Config, outputDir, rebuild, w.Debounce, g.Logger)
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
