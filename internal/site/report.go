package site

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stephenafamo/bobdocs/internal/config"
	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
	"github.com/stephenafamo/bobdocs/internal/plugin"
)

// Files written into the output directory by the report stage.
const (
	ReportFile     = "build-report.json"
	PostCSSFile    = "postcss.plugins.json"
	GlobalDataFile = "global-data.json"
)

// BuildOutcome is the final result of a build.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// PluginSummary describes a loaded plugin.
type PluginSummary struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Type    string   `json:"type"`
	Hooks   []string `json:"hooks"`
}

// Report captures what a build did.
type Report struct {
	SchemaVersion  int
	Environment    config.BuildEnvironment
	Start          time.Time
	End            time.Time
	Plugins        []PluginSummary
	GlobalData     []string // plugins that published global data
	Tags           plugin.HTMLTags
	PostCSSPlugins []string
	PagesTotal     int
	PagesInjected  int
	PagesSkipped   int
	BrokenLinks    []BrokenLink
	StageDurations map[string]time.Duration
	StageResults   map[string]string
	Outcome        BuildOutcome
	Error          string

	instances []plugin.Plugin
}

// Instances returns the plugins loaded by the build, in configuration order.
func (r *Report) Instances() []plugin.Plugin {
	return r.instances
}

func newReport(env config.BuildEnvironment, start time.Time) *Report {
	return &Report{
		SchemaVersion:  1,
		Environment:    env,
		Start:          start,
		StageDurations: make(map[string]time.Duration),
		StageResults:   make(map[string]string),
	}
}

func (r *Report) finish(end time.Time, err error) {
	r.End = end
	switch {
	case err == nil:
		r.Outcome = OutcomeSuccess
		r.Error = ""
	case stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded):
		r.Outcome = OutcomeCanceled
		r.Error = err.Error()
	default:
		r.Outcome = OutcomeFailed
		r.Error = err.Error()
	}
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("env=%s plugins=%d pages=%d injected=%d skipped=%d duration=%s outcome=%s",
		r.Environment, len(r.Plugins), r.PagesTotal, r.PagesInjected, r.PagesSkipped,
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

type reportJSON struct {
	SchemaVersion    int                `json:"schema_version"`
	Environment      string             `json:"environment"`
	Start            time.Time          `json:"start"`
	End              time.Time          `json:"end"`
	Plugins          []PluginSummary    `json:"plugins"`
	GlobalData       []string           `json:"global_data"`
	Tags             plugin.HTMLTags    `json:"tags"`
	PostCSSPlugins   []string           `json:"postcss_plugins"`
	PagesTotal       int                `json:"pages_total"`
	PagesInjected    int                `json:"pages_injected"`
	PagesSkipped     int                `json:"pages_skipped"`
	BrokenLinks      []BrokenLink       `json:"broken_links,omitempty"`
	StageDurationsMS map[string]float64 `json:"stage_durations_ms"`
	StageResults     map[string]string  `json:"stage_results"`
	Outcome          BuildOutcome       `json:"outcome"`
	Error            string             `json:"error,omitempty"`
}

// MarshalJSON renders durations as milliseconds.
func (r *Report) MarshalJSON() ([]byte, error) {
	durations := make(map[string]float64, len(r.StageDurations))
	for k, v := range r.StageDurations {
		durations[k] = msec(v)
	}
	return json.Marshal(reportJSON{
		SchemaVersion:    r.SchemaVersion,
		Environment:      r.Environment.String(),
		Start:            r.Start,
		End:              r.End,
		Plugins:          r.Plugins,
		GlobalData:       r.GlobalData,
		Tags:             r.Tags,
		PostCSSPlugins:   r.PostCSSPlugins,
		PagesTotal:       r.PagesTotal,
		PagesInjected:    r.PagesInjected,
		PagesSkipped:     r.PagesSkipped,
		BrokenLinks:      r.BrokenLinks,
		StageDurationsMS: durations,
		StageResults:     r.StageResults,
		Outcome:          r.Outcome,
		Error:            r.Error,
	})
}

// stageReport persists the report, the PostCSS plugin list and the global
// data into the output directory.
func stageReport(_ context.Context, bs *buildState) error {
	root := bs.outputDir
	if err := writeJSON(filepath.Join(root, PostCSSFile), bs.postcss); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(root, GlobalDataFile), bs.globalData.Map()); err != nil {
		return err
	}

	snapshot := *bs.report
	snapshot.finish(bs.builder.now(), nil)
	return writeJSON(filepath.Join(root, ReportFile), &snapshot)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode report").
			WithContext("path", path).
			Build()
	}
	if err := writeFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write report").
			WithContext("path", path).
			Build()
	}
	return nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
