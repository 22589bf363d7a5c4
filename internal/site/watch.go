package site

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stephenafamo/bobdocs/internal/logfields"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc runs one fresh build. Errors are logged and watching goes on.
type RebuildFunc func(ctx context.Context) error

// Watcher triggers rebuilds when the configuration file or a rendered page
// changes. Changes are debounced, and every rebuild starts from scratch.
//
// A rebuild rewrites pages, which in turn fires events. The follow-up
// rebuild finds every tag already present and writes nothing, so the loop
// settles after one extra pass.
type Watcher struct {
	configPath string
	outputDir  string
	rebuild    RebuildFunc
	debounce   time.Duration
	logger     *slog.Logger
	watcher    *fsnotify.Watcher
}

// NewWatcher creates a watcher for configPath and the pages under outputDir.
func NewWatcher(configPath, outputDir string, rebuild RebuildFunc, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	absOutput, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		configPath: absConfig,
		outputDir:  absOutput,
		rebuild:    rebuild,
		debounce:   debounce,
		logger:     logger,
		watcher:    fw,
	}, nil
}

// Run watches until ctx is done. The watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	// Watch the directory containing the config file; editors often replace
	// the file rather than writing it.
	configDir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", configDir, err)
	}
	if _, err := w.watchOutput(); err != nil {
		w.logger.Warn("Output directory not watched", logfields.Output(w.outputDir), logfields.Error(err))
	}

	w.logger.Info("Watching for changes",
		logfields.Config(w.configPath),
		logfields.Output(w.outputDir))

	// Stop and Reset never leave a stale tick behind since Go 1.23.
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Change detected", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))

		case <-timer.C:
			w.logger.Info("Rebuilding")
			if err := w.rebuild(ctx); err != nil {
				w.logger.Error("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

// relevant reports whether event should trigger a rebuild. New output
// directories are added to the watch list as a side effect.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	name := filepath.Clean(event.Name)

	if name == w.configPath {
		if event.Has(fsnotify.Remove) {
			w.logger.Warn("Config file removed", logfields.Config(name))
			return false
		}
		return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
	}

	// A missing output directory is waited for from its closest existing
	// ancestor; follow each new level down.
	if strings.HasPrefix(w.outputDir, name+string(filepath.Separator)) {
		if !event.Has(fsnotify.Create) {
			return false
		}
		ready, err := w.watchOutput()
		if err != nil {
			w.logger.Warn("Output directory not watched", logfields.Output(w.outputDir), logfields.Error(err))
		}
		return ready
	}

	if !strings.HasPrefix(name, w.outputDir+string(filepath.Separator)) && name != w.outputDir {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			if err := w.addTree(name); err != nil {
				w.logger.Warn("Failed to watch directory", slog.String("dir", name), logfields.Error(err))
			}
			return true
		}
	}
	if !isHTML(name) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// watchOutput watches the output tree when it exists and reports true.
// Otherwise it watches the closest existing ancestor so the directory's
// creation is seen.
func (w *Watcher) watchOutput() (bool, error) {
	if info, err := os.Stat(w.outputDir); err == nil && info.IsDir() {
		return true, w.addTree(w.outputDir)
	}

	dir := filepath.Dir(w.outputDir)
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false, fmt.Errorf("no existing parent for %s", w.outputDir)
		}
		dir = parent
	}
	w.logger.Info("Waiting for output directory", logfields.Output(w.outputDir), slog.String("watching", dir))
	return false, w.watcher.Add(dir)
}

// addTree watches root and every directory below it. fsnotify is not
// recursive.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path == filepath.Dir(w.configPath) {
			return nil
		}
		return w.watcher.Add(path)
	})
}
