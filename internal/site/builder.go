package site

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/stephenafamo/bobdocs/internal/config"
	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
	"github.com/stephenafamo/bobdocs/internal/logfields"
	"github.com/stephenafamo/bobdocs/internal/metrics"
	"github.com/stephenafamo/bobdocs/internal/plugin"
)

// Builder runs builds for one configuration and build environment. It holds
// no per-build state and can run several builds one after another.
type Builder struct {
	cfg         *config.Config
	env         config.BuildEnvironment
	registry    *plugin.Registry
	logger      *slog.Logger
	recorder    metrics.Recorder
	concurrency int
	now         func() time.Time
}

// NewBuilder creates a Builder. cfg must already be validated.
func NewBuilder(cfg *config.Config, env config.BuildEnvironment) *Builder {
	return &Builder{
		cfg:         cfg,
		env:         env,
		registry:    plugin.DefaultRegistry(),
		logger:      slog.Default(),
		recorder:    metrics.NoopRecorder{},
		concurrency: runtime.GOMAXPROCS(0),
		now:         time.Now,
	}
}

// WithRegistry replaces the default plugin registry.
func (b *Builder) WithRegistry(r *plugin.Registry) *Builder {
	if r != nil {
		b.registry = r
	}
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

// SetRecorder injects a metrics recorder (optional). Returns the builder for chaining.
func (b *Builder) SetRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	b.recorder = r
	return b
}

// WithConcurrency limits how many pages are processed at once.
func (b *Builder) WithConcurrency(n int) *Builder {
	if n > 0 {
		b.concurrency = n
	}
	return b
}

// Build runs every stage against the rendered site in outputDir. The report
// is returned even when the build fails.
func (b *Builder) Build(ctx context.Context, outputDir string) (*Report, error) {
	if outputDir == "" {
		outputDir = b.cfg.Output.Directory
	}
	bs := b.newState(outputDir)
	logger := bs.logger.With(logfields.Output(outputDir))
	logger.Info("Starting build", logfields.Environment(b.env.String()))

	err := runStages(ctx, bs, buildStages())
	b.finish(bs, err)

	if err != nil {
		logger.Error("Build failed", logfields.Error(err))
		return bs.report, err
	}
	logger.Info("Build completed",
		logfields.Pages(bs.report.PagesInjected),
		slog.Int("skipped", bs.report.PagesSkipped),
		logfields.DurationMS(msec(bs.report.Duration())))
	return bs.report, nil
}

// Check loads every plugin and runs the hooks that do not need the output
// tree. Nothing is written.
func (b *Builder) Check(ctx context.Context) (*Report, error) {
	bs := b.newState("")
	err := runStages(ctx, bs, checkStages())
	b.finish(bs, err)
	return bs.report, err
}

func (b *Builder) newState(outputDir string) *buildState {
	if b.cfg == nil {
		panic("site: Builder requires a configuration")
	}
	return &buildState{
		builder:   b,
		cfg:       b.cfg,
		env:       b.env,
		outputDir: outputDir,
		logger:    b.logger,
		recorder:  b.recorder,
		store:     plugin.NewGlobalDataStore(),
		report:    newReport(b.env, b.now()),
	}
}

func (b *Builder) finish(bs *buildState, err error) {
	bs.report.finish(b.now(), err)
	b.recorder.ObserveBuildDuration(bs.report.Duration())
	b.recorder.IncBuildOutcome(string(bs.report.Outcome))
}

// loadedPlugin is a plugin instance with the name it was configured under.
type loadedPlugin struct {
	name   string
	plugin plugin.Plugin
}

// buildState is owned by a single build.
type buildState struct {
	builder   *Builder
	cfg       *config.Config
	env       config.BuildEnvironment
	outputDir string
	logger    *slog.Logger
	recorder  metrics.Recorder

	plugins    []loadedPlugin
	store      *plugin.GlobalDataStore
	globalData plugin.GlobalData
	tags       plugin.HTMLTags
	postcss    plugin.PostCSSOptions

	report *Report
}

func (bs *buildState) recordStage(name StageName, d time.Duration, result metrics.ResultLabel) {
	bs.report.StageDurations[string(name)] = d
	bs.report.StageResults[string(name)] = string(result)
	bs.recorder.ObserveStageDuration(string(name), d)
	bs.recorder.IncStageResult(string(name), result)
}

// requireOutputDir fails when the rendered site is missing.
func requireOutputDir(dir string) error {
	if dir == "" {
		return errors.ConfigError("output directory is required").Build()
	}
	return nil
}
