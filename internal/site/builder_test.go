package site

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stephenafamo/bobdocs/internal/config"
	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
	"github.com/stephenafamo/bobdocs/internal/metrics"
	"github.com/stephenafamo/bobdocs/internal/plugin"
	"github.com/stephenafamo/bobdocs/internal/plugin/analytics"
	"github.com/stephenafamo/bobdocs/internal/plugin/tailwind"
)

const websiteID = "e84c4b3f-1915-5441-b601-d1b85dce7329"

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Bob</title>
</head>
<body class="docs">
<main><p>Query builder</p></main>
<script>var closing = "</body>";</script>
</body>
</html>
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(t *testing.T) *plugin.Registry {
	t.Helper()
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(analytics.Name, analytics.New))
	require.NoError(t, r.Register(tailwind.Name, tailwind.New))
	return r
}

func newTestBuilder(t *testing.T, cfg *config.Config, env config.BuildEnvironment) *Builder {
	t.Helper()
	return NewBuilder(cfg, env).WithRegistry(testRegistry(t)).WithLogger(testLogger())
}

func testConfig(t *testing.T, pluginsYAML string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
site:
  title: Bob
  url: https://bob.example.com
postcss:
  plugins: [postcss-import]
plugins:
` + pluginsYAML))
	require.NoError(t, err)
	return cfg
}

const analyticsPlugins = `
  - name: simple-analytics
    options:
      websiteID: ` + websiteID + `
  - name: tailwind
`

func writeSite(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "index.html"),
		filepath.Join(dir, "docs", "intro", "index.html"),
		filepath.Join(dir, "docs", "query-builder.html"),
	}
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(samplePage), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles.css"), []byte("body{}"), 0o644))
	return dir, paths
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestBuildInjectsAnalytics(t *testing.T) {
	dir, pages := writeSite(t)
	b := newTestBuilder(t, testConfig(t, analyticsPlugins), config.EnvProduction).WithConcurrency(2)

	report, err := b.Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, 3, report.PagesTotal)
	assert.Equal(t, 3, report.PagesInjected)
	assert.Equal(t, 0, report.PagesSkipped)

	markup := analytics.Render(analytics.Endpoint{
		CollectURL:     analytics.ProductionCollectURL,
		TenantHostname: websiteID + ".bob.example.com",
	})

	for _, p := range pages {
		got := readFile(t, p)
		assert.Equal(t, 1, strings.Count(got, markup.Script), p)
		assert.Equal(t, 1, strings.Count(got, markup.NoScript), p)

		closing := strings.LastIndex(got, "</body>")
		assert.Less(t, strings.Index(got, markup.Script), strings.Index(got, markup.NoScript))
		assert.Less(t, strings.Index(got, markup.NoScript), closing)
		// The closing tag inside the inline script is not an insertion point.
		assert.Greater(t, strings.Index(got, markup.Script), strings.Index(got, `var closing`))
	}

	assert.Equal(t, "body{}", readFile(t, filepath.Join(dir, "styles.css")))
}

func TestBuildDevelopmentEndpoint(t *testing.T) {
	dir, pages := writeSite(t)
	b := newTestBuilder(t, testConfig(t, analyticsPlugins), config.EnvNonProduction)

	_, err := b.Build(context.Background(), dir)
	require.NoError(t, err)

	got := readFile(t, pages[0])
	assert.Contains(t, got, `src="http://localhost:3000/latest.js"`)
	assert.Contains(t, got, `data-hostname="`+websiteID+`.bob.example.com"`)
	assert.NotContains(t, got, analytics.ProductionCollectURL)
}

func TestBuildTwiceInjectsOnce(t *testing.T) {
	dir, pages := writeSite(t)
	b := newTestBuilder(t, testConfig(t, analyticsPlugins), config.EnvProduction)

	_, err := b.Build(context.Background(), dir)
	require.NoError(t, err)
	first := readFile(t, pages[1])

	report, err := b.Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, report.PagesInjected)
	assert.Equal(t, 3, report.PagesSkipped)
	assert.Equal(t, first, readFile(t, pages[1]))
}

func TestBuildInvalidOptionsLeavesPagesUntouched(t *testing.T) {
	tests := []struct {
		name    string
		plugins string
	}{
		{"missing websiteID", "\n  - name: simple-analytics\n"},
		{"malformed websiteID", "\n  - name: simple-analytics\n    options:\n      websiteID: not-a-guid\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, pages := writeSite(t)
			b := newTestBuilder(t, testConfig(t, tt.plugins), config.EnvProduction)

			report, err := b.Build(context.Background(), dir)
			require.Error(t, err)
			assert.True(t, analytics.IsConfigurationError(err))
			assert.Equal(t, OutcomeFailed, report.Outcome)
			assert.Equal(t, string(metrics.ResultFatal), report.StageResults[string(StageLoadPlugins)])
			assert.NotContains(t, report.StageResults, string(StageInject))

			for _, p := range pages {
				assert.Equal(t, samplePage, readFile(t, p))
			}
			assert.NoFileExists(t, filepath.Join(dir, ReportFile))
		})
	}
}

func TestBuildWritesReports(t *testing.T) {
	dir, _ := writeSite(t)
	b := newTestBuilder(t, testConfig(t, analyticsPlugins), config.EnvProduction)

	_, err := b.Build(context.Background(), dir)
	require.NoError(t, err)

	var postcss plugin.PostCSSOptions
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(dir, PostCSSFile))), &postcss))
	assert.Equal(t, []string{"postcss-import", "tailwindcss", "autoprefixer"}, postcss.Plugins)

	var global map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(dir, GlobalDataFile))), &global))
	assert.Equal(t, map[string]map[string]string{analytics.Name: {"websiteID": websiteID}}, global)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(dir, ReportFile))), &report))
	assert.Equal(t, "success", report["outcome"])
	assert.Equal(t, "production", report["environment"])
	assert.EqualValues(t, 3, report["pages_injected"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestBuildMissingOutputDir(t *testing.T) {
	b := newTestBuilder(t, testConfig(t, analyticsPlugins), config.EnvProduction)

	_, err := b.Build(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestBuildCanceled(t *testing.T) {
	dir, pages := writeSite(t)
	b := newTestBuilder(t, testConfig(t, analyticsPlugins), config.EnvProduction)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := b.Build(ctx, dir)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, context.Canceled))
	assert.Equal(t, OutcomeCanceled, report.Outcome)
	assert.Equal(t, samplePage, readFile(t, pages[0]))
}

func TestBuildDuplicatePlugin(t *testing.T) {
	dir, _ := writeSite(t)
	b := newTestBuilder(t, testConfig(t, "\n  - name: tailwind\n  - name: tailwind\n"), config.EnvProduction)

	_, err := b.Build(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestBuildUnknownPlugin(t *testing.T) {
	dir, _ := writeSite(t)
	b := newTestBuilder(t, testConfig(t, "\n  - name: google-analytics\n"), config.EnvProduction)

	_, err := b.Build(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestCheckDoesNotWrite(t *testing.T) {
	b := newTestBuilder(t, testConfig(t, analyticsPlugins), config.EnvProduction)

	report, err := b.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Len(t, report.Tags.PostBodyTags, 2)
	assert.Equal(t, []string{"postcss-import", "tailwindcss", "autoprefixer"}, report.PostCSSPlugins)
	assert.Equal(t, []string{analytics.Name}, report.GlobalData)
	assert.NotContains(t, report.StageResults, string(StageInject))
}

func TestCheckLogsFrozenGlobalData(t *testing.T) {
	var logs bytes.Buffer
	b := newTestBuilder(t, testConfig(t, analyticsPlugins), config.EnvProduction).
		WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	_, err := b.Check(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `msg="Global data frozen".* plugins=1`, logs.String())
}

func TestCheckInstances(t *testing.T) {
	b := newTestBuilder(t, testConfig(t, analyticsPlugins), config.EnvProduction)

	report, err := b.Check(context.Background())
	require.NoError(t, err)
	ps := report.Instances()
	require.Len(t, ps, 2)
	assert.Equal(t, analytics.Name, ps[0].Metadata().Name)
	assert.Equal(t, tailwind.Name, ps[1].Metadata().Name)
}

// fakePlugin exercises every hook with configurable results.
type fakePlugin struct {
	name       string
	tags       plugin.HTMLTags
	tagsErr    error
	loadErr    error
	data       any
	tagsCalled int
	mu         sync.Mutex
}

func (f *fakePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{Name: f.name, Version: "v0.0.1", Type: plugin.PluginTypeContent}
}

func (f *fakePlugin) ContentLoaded(_ context.Context, a *plugin.Actions) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	if f.data != nil {
		return a.SetGlobalData(f.data)
	}
	return nil
}

func (f *fakePlugin) InjectHTMLTags(context.Context) (plugin.HTMLTags, error) {
	f.mu.Lock()
	f.tagsCalled++
	f.mu.Unlock()
	return f.tags, f.tagsErr
}

func fakeRegistry(t *testing.T, fakes ...*fakePlugin) *plugin.Registry {
	t.Helper()
	r := testRegistry(t)
	for _, f := range fakes {
		require.NoError(t, r.Register(f.name, func(plugin.LoadContext, map[string]any) (plugin.Plugin, error) {
			return f, nil
		}))
	}
	return r
}

func TestBuildAllInsertionPoints(t *testing.T) {
	dir, pages := writeSite(t)
	fake := &fakePlugin{name: "fake", tags: plugin.HTMLTags{
		HeadTags:     []string{`<link rel="preconnect" href="https://scripts.simpleanalyticscdn.com">`},
		PreBodyTags:  []string{`<div id="banner"></div>`},
		PostBodyTags: []string{`<script src="/extra.js"></script>`},
	}}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.js"), []byte("//"), 0o644))
	b := NewBuilder(testConfig(t, analyticsPlugins+"  - name: fake\n"), config.EnvProduction).WithRegistry(fakeRegistry(t, fake)).WithLogger(testLogger())

	_, err := b.Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.tagsCalled)

	got := readFile(t, pages[0])
	assert.Less(t, strings.Index(got, `<link rel="preconnect"`), strings.Index(got, "</head>"))
	assert.Less(t, strings.Index(got, `<body class="docs">`), strings.Index(got, `<div id="banner">`))
	assert.Less(t, strings.Index(got, `<div id="banner">`), strings.Index(got, "<main>"))

	// Configuration order: analytics tags come before the fake plugin's.
	assert.Less(t, strings.Index(got, "latest.js"), strings.Index(got, "/extra.js"))
	assert.Less(t, strings.Index(got, "/extra.js"), strings.LastIndex(got, "</body>"))

	_, err = b.Build(context.Background(), dir)
	require.NoError(t, err)
	again := readFile(t, pages[0])
	assert.Equal(t, got, again)
	assert.Equal(t, 1, strings.Count(again, `<div id="banner">`))
}

func TestBuildHookErrorLeavesPagesUntouched(t *testing.T) {
	dir, pages := writeSite(t)
	fake := &fakePlugin{name: "fake", tagsErr: stderrors.New("boom")}
	b := NewBuilder(testConfig(t, analyticsPlugins+"  - name: fake\n"), config.EnvProduction).WithRegistry(fakeRegistry(t, fake)).WithLogger(testLogger())

	_, err := b.Build(context.Background(), dir)
	require.Error(t, err)
	var pe *plugin.PluginError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "fake", pe.PluginName)
	assert.Equal(t, plugin.HookInjectHTMLTags, pe.Operation)
	assert.True(t, errors.HasCategory(err, errors.CategoryPlugin))
	assert.Equal(t, samplePage, readFile(t, pages[0]))
}

func TestBuildGlobalDataWriteOnce(t *testing.T) {
	dir, _ := writeSite(t)
	fake := &fakePlugin{name: "fake", data: map[string]string{"k": "v"}}
	b := NewBuilder(testConfig(t, analyticsPlugins+"  - name: fake\n"), config.EnvProduction).WithRegistry(fakeRegistry(t, fake)).WithLogger(testLogger())

	report, err := b.Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"fake", analytics.Name}, report.GlobalData)
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	stages   map[string]metrics.ResultLabel
	loads    map[string]bool
	injected int
	skipped  int
	outcome  string
}

func (c *countingRecorder) IncStageResult(stage string, r metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages[stage] = r
}

func (c *countingRecorder) IncPluginLoad(name string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads[name] = ok
}

func (c *countingRecorder) AddInjectedPages(injected, skipped int) {
	c.injected += injected
	c.skipped += skipped
}

func (c *countingRecorder) IncBuildOutcome(o string) { c.outcome = o }

func TestBuildRecordsMetrics(t *testing.T) {
	dir, _ := writeSite(t)
	rec := &countingRecorder{stages: map[string]metrics.ResultLabel{}, loads: map[string]bool{}}
	b := newTestBuilder(t, testConfig(t, analyticsPlugins), config.EnvProduction).SetRecorder(rec)
	b.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	_, err := b.Build(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "success", rec.outcome)
	assert.Equal(t, map[string]bool{analytics.Name: true, tailwind.Name: true}, rec.loads)
	assert.Equal(t, 3, rec.injected)
	for _, st := range buildStages() {
		assert.Equal(t, metrics.ResultSuccess, rec.stages[string(st.Name)], st.Name)
	}
}
