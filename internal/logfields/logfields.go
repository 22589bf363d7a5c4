package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPlugin      = "plugin"
	KeyStage       = "stage"
	KeyPage        = "page"
	KeyPages       = "pages"
	KeyEnvironment = "environment"
	KeyOutput      = "output"
	KeyConfig      = "config"
	KeyDurationMS  = "duration_ms"
	KeyEndpoint    = "collect_url"
	KeyTenantHost  = "tenant_hostname"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Plugin(name string) slog.Attr      { return slog.String(KeyPlugin, name) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func Page(path string) slog.Attr        { return slog.String(KeyPage, path) }
func Pages(n int) slog.Attr             { return slog.Int(KeyPages, n) }
func Environment(env string) slog.Attr  { return slog.String(KeyEnvironment, env) }
func Output(dir string) slog.Attr       { return slog.String(KeyOutput, dir) }
func Config(path string) slog.Attr      { return slog.String(KeyConfig, path) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Endpoint(url string) slog.Attr     { return slog.String(KeyEndpoint, url) }
func TenantHost(host string) slog.Attr  { return slog.String(KeyTenantHost, host) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
