package commands

import (
	"context"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/stephenafamo/bobdocs/internal/config"
	"github.com/stephenafamo/bobdocs/internal/logfields"
	"github.com/stephenafamo/bobdocs/internal/metrics"
	"github.com/stephenafamo/bobdocs/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Rendered site directory (defaults to output.directory)"`
	Env         string `name:"env" help:"Build environment, e.g. production or development (overrides BOBDOCS_ENV and NODE_ENV)"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in text format to this file"`
	Concurrency int    `help:"Pages rewritten in parallel (0 uses GOMAXPROCS)" default:"0"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, env, err := loadConfig(g, root, b.Env)
	if err != nil {
		return err
	}
	return RunBuild(ctx, g, cfg, env, BuildOptions{
		OutputDir:   ResolveOutputDir(b.Output, cfg),
		MetricsFile: b.MetricsFile,
		Concurrency: b.Concurrency,
	})
}

// BuildOptions are the per-run settings of a build.
type BuildOptions struct {
	OutputDir   string
	MetricsFile string
	Concurrency int
}

// RunBuild runs one build and prints its summary.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config, env config.BuildEnvironment, opts BuildOptions) error {
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	registry := prom.NewRegistry()
	if opts.MetricsFile != "" {
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	builder := site.NewBuilder(cfg, env).
		WithLogger(g.Logger).
		SetRecorder(recorder).
		WithConcurrency(opts.Concurrency)

	report, err := builder.Build(ctx, opts.OutputDir)

	if opts.MetricsFile != "" {
		if werr := metrics.WriteTextfile(opts.MetricsFile, registry); werr != nil {
			g.Logger.Warn("Failed to write metrics", logfields.Error(werr))
		}
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(g.Stdout, report.Summary())
	return nil
}
