package plugin

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/stephenafamo/bobdocs/internal/config"
)

// LoadContext is what a Factory gets to know about the build. It is a value:
// factories cannot change it and nothing in it changes during a build.
type LoadContext struct {
	// SiteURL is the canonical site origin from site.url.
	SiteURL string

	// SiteHostname is the hostname of SiteURL, already validated.
	SiteHostname string

	// BaseURL is the path prefix the site is served under.
	BaseURL string

	// Environment is resolved once when the build starts.
	Environment config.BuildEnvironment

	// Logger is scoped to the plugin being created.
	Logger *slog.Logger
}

// NewLoadContext derives a LoadContext from a validated configuration.
func NewLoadContext(cfg *config.Config, env config.BuildEnvironment, logger *slog.Logger) LoadContext {
	if logger == nil {
		logger = slog.Default()
	}
	return LoadContext{
		SiteURL:      cfg.Site.URL,
		SiteHostname: cfg.SiteHostname(),
		BaseURL:      cfg.Site.BaseURL,
		Environment:  env,
		Logger:       logger,
	}
}

// ForPlugin returns a copy whose logger is tagged with the plugin name.
func (lc LoadContext) ForPlugin(name string) LoadContext {
	logger := lc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lc.Logger = logger.With(slog.String("plugin", name))
	return lc
}

// GlobalDataStore collects plugin data during the content-loaded phase.
// Each plugin may write once; Freeze ends the phase.
type GlobalDataStore struct {
	mu     sync.Mutex
	data   map[string]any
	frozen bool
}

// NewGlobalDataStore creates an empty store.
func NewGlobalDataStore() *GlobalDataStore {
	return &GlobalDataStore{data: make(map[string]any)}
}

func (s *GlobalDataStore) set(plugin string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return fmt.Errorf("global data for %s set after content loading finished", plugin)
	}
	if _, exists := s.data[plugin]; exists {
		return fmt.Errorf("global data for %s already set", plugin)
	}
	s.data[plugin] = value
	return nil
}

// Freeze stops further writes and returns the read-only snapshot.
func (s *GlobalDataStore) Freeze() GlobalData {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frozen = true
	return GlobalData{data: maps.Clone(s.data)}
}

// GlobalData is the immutable per-build data published by plugins. It is
// safe to share between goroutines.
type GlobalData struct {
	data map[string]any
}

// Get returns the value a plugin published.
func (g GlobalData) Get(plugin string) (any, bool) {
	v, ok := g.data[plugin]
	return v, ok
}

// Names lists the plugins that published data, sorted.
func (g GlobalData) Names() []string {
	return slices.Sorted(maps.Keys(g.data))
}

// Map returns a copy of all published data.
func (g GlobalData) Map() map[string]any {
	return maps.Clone(g.data)
}

// Len reports how many plugins published data.
func (g GlobalData) Len() int {
	return len(g.data)
}

// Actions is handed to ContentLoaded and is bound to one plugin.
type Actions struct {
	plugin string
	store  *GlobalDataStore
}

// NewActions binds a store to a plugin name.
func NewActions(plugin string, store *GlobalDataStore) *Actions {
	return &Actions{plugin: plugin, store: store}
}

// SetGlobalData publishes value for the plugin. It may be called once.
func (a *Actions) SetGlobalData(value any) error {
	return a.store.set(a.plugin, value)
}
