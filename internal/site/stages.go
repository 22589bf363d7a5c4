package site

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
	"github.com/stephenafamo/bobdocs/internal/logfields"
	"github.com/stephenafamo/bobdocs/internal/metrics"
)

// StageName identifies a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageLoadPlugins   StageName = "load_plugins"
	StageContentLoaded StageName = "content_loaded"
	StageHTMLTags      StageName = "html_tags"
	StagePostCSS       StageName = "postcss"
	StageInject        StageName = "inject"
	StageLinks         StageName = "links"
	StageReport        StageName = "report"
)

// Stage executes one step of a build against the shared state.
type Stage func(ctx context.Context, bs *buildState) error

// StageDef pairs a stage name with its function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// buildStages is the full pipeline; checkStages stops before the output tree.
func buildStages() []StageDef {
	return []StageDef{
		{StageLoadPlugins, stageLoadPlugins},
		{StageContentLoaded, stageContentLoaded},
		{StageHTMLTags, stageHTMLTags},
		{StagePostCSS, stagePostCSS},
		{StageInject, stageInject},
		{StageLinks, stageLinks},
		{StageReport, stageReport},
	}
}

func checkStages() []StageDef {
	return buildStages()[:4]
}

// runStages executes stages in order, recording timing, and stops on the
// first error.
func runStages(ctx context.Context, bs *buildState, stages []StageDef) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			bs.recordStage(st.Name, 0, metrics.ResultCanceled)
			return errors.WrapError(err, errors.CategoryBuild, "build canceled").
				WithContext("stage", string(st.Name)).
				Build()
		}

		logger := bs.logger.With(logfields.Stage(string(st.Name)))
		logger.Debug("Stage started")

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)

		if err != nil {
			result := metrics.ResultFatal
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				result = metrics.ResultCanceled
			}
			bs.recordStage(st.Name, dur, result)
			logger.Error("Stage failed", logfields.DurationMS(msec(dur)), logfields.Error(err))
			return err
		}

		bs.recordStage(st.Name, dur, metrics.ResultSuccess)
		logger.Debug("Stage completed", logfields.DurationMS(msec(dur)))
	}
	return nil
}

func msec(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
