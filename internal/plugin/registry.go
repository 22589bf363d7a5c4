package plugin

import (
	"slices"
	"sync"

	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
)

// Factory creates a plugin instance from its raw options. Factories validate
// the options and must return an error rather than a half-configured plugin.
type Factory func(lc LoadContext, options map[string]any) (Plugin, error)

// Registry maps plugin names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under name. Names are unique.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return errors.InternalError("plugin name is required").Build()
	}
	if factory == nil {
		return errors.InternalError("cannot register nil factory").WithContext("plugin", name).Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.InternalError("plugin already registered").WithContext("plugin", name).Build()
	}
	r.factories[name] = factory
	return nil
}

// Has checks if a plugin with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[name]
	return ok
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New instantiates the plugin registered under name.
func (r *Registry) New(name string, lc LoadContext, options map[string]any) (Plugin, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.ConfigError("unknown plugin").
			WithContext("plugin", name).
			WithContext("available", r.Names()).
			Build()
	}

	if options == nil {
		options = map[string]any{}
	}
	p, err := factory(lc.ForPlugin(name), options)
	if err != nil {
		return nil, NewPluginError(name, "load", err)
	}
	if p == nil {
		return nil, NewPluginError(name, "load", errors.InternalError("factory returned no plugin").Build())
	}

	if err := p.Metadata().Validate(); err != nil {
		return nil, NewPluginError(name, "load", errors.WrapError(err, errors.CategoryInternal, "invalid plugin metadata").Fatal().Build())
	}
	return p, nil
}

var globalRegistry = NewRegistry()

// DefaultRegistry returns the registry plugin packages register into from init.
func DefaultRegistry() *Registry {
	return globalRegistry
}

// Register adds a factory to the default registry.
func Register(name string, factory Factory) error {
	return globalRegistry.Register(name, factory)
}

// MustRegister is Register for package init functions.
func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}
