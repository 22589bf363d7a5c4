// Package metrics provides build observability for bobdocs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	b := site.NewBuilder(cfg, env).SetRecorder(metrics.NewPrometheusRecorder(reg))
//
// The CLI activates the Prometheus implementation when --metrics-file is set and
// writes the gathered registry in the text exposition format once the build is
// done (node_exporter textfile collector style).
package metrics
