// Package site drives a documentation build on the host side.
//
// The static-site generator renders the pages; this package loads the
// configured plugins, runs their lifecycle hooks in configuration order and
// then adds the collected HTML tags to every generated page. A build is a
// fixed sequence of stages:
//
//	load_plugins -> content_loaded -> html_tags -> postcss -> inject -> links -> report
//
// The first failing stage aborts the build. Plugin option errors surface in
// load_plugins, so a misconfigured plugin never touches the output tree.
package site
