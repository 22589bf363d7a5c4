package site

import (
	"context"
	"slices"

	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
	"github.com/stephenafamo/bobdocs/internal/logfields"
	"github.com/stephenafamo/bobdocs/internal/plugin"
)

// stageLoadPlugins instantiates the configured plugins in order. Factories
// validate their own options, so this is where option errors surface.
func stageLoadPlugins(_ context.Context, bs *buildState) error {
	lc := plugin.NewLoadContext(bs.cfg, bs.env, bs.logger)
	seen := make(map[string]bool, len(bs.cfg.Plugins))

	for _, entry := range bs.cfg.Plugins {
		if seen[entry.Name] {
			return errors.ConfigError("plugin configured more than once").
				WithContext("plugin", entry.Name).
				Build()
		}
		seen[entry.Name] = true

		p, err := bs.builder.registry.New(entry.Name, lc, entry.Options)
		bs.recorder.IncPluginLoad(entry.Name, err == nil)
		if err != nil {
			return err
		}

		meta := p.Metadata()
		bs.plugins = append(bs.plugins, loadedPlugin{name: entry.Name, plugin: p})
		bs.report.instances = append(bs.report.instances, p)
		bs.report.Plugins = append(bs.report.Plugins, PluginSummary{
			Name:    entry.Name,
			Version: meta.Version,
			Type:    meta.Type.String(),
			Hooks:   plugin.Hooks(p),
		})
		bs.logger.Debug("Loaded plugin", logfields.Plugin(entry.Name), "version", meta.Version)
	}
	return nil
}

// stageContentLoaded calls every ContentLoader once, then freezes the
// global data so later stages only see an immutable snapshot.
func stageContentLoaded(ctx context.Context, bs *buildState) error {
	for _, lp := range bs.plugins {
		loader, ok := lp.plugin.(plugin.ContentLoader)
		if !ok {
			continue
		}
		if err := loader.ContentLoaded(ctx, plugin.NewActions(lp.name, bs.store)); err != nil {
			return hookError(lp.name, plugin.HookContentLoaded, err)
		}
	}
	bs.globalData = bs.store.Freeze()
	bs.report.GlobalData = bs.globalData.Names()
	bs.logger.Debug("Global data frozen", "plugins", bs.globalData.Len())
	return nil
}

// stageHTMLTags asks each injector for its tags once and merges them in
// configuration order.
func stageHTMLTags(ctx context.Context, bs *buildState) error {
	var tags plugin.HTMLTags
	for _, lp := range bs.plugins {
		injector, ok := lp.plugin.(plugin.HTMLTagsInjector)
		if !ok {
			continue
		}
		t, err := injector.InjectHTMLTags(ctx)
		if err != nil {
			return hookError(lp.name, plugin.HookInjectHTMLTags, err)
		}
		tags = tags.Merge(t)
	}
	bs.tags = tags
	bs.report.Tags = tags
	return nil
}

// stagePostCSS folds ConfigurePostCSS across plugins, starting from the
// configured base list.
func stagePostCSS(_ context.Context, bs *buildState) error {
	opts := plugin.PostCSSOptions{Plugins: slices.Clone(bs.cfg.PostCSS.Plugins)}
	for _, lp := range bs.plugins {
		if c, ok := lp.plugin.(plugin.PostCSSConfigurer); ok {
			opts = c.ConfigurePostCSS(opts)
		}
	}
	if opts.Plugins == nil {
		opts.Plugins = []string{}
	}
	bs.postcss = opts
	bs.report.PostCSSPlugins = opts.Plugins
	return nil
}

// hookError wraps a hook failure. Classified errors keep their category;
// anything else is reported as a plugin error.
func hookError(name, hook string, err error) error {
	if !errors.IsClassified(err) {
		err = errors.WrapError(err, errors.CategoryPlugin, "plugin hook failed").
			Fatal().
			WithContext("plugin", name).
			WithContext("hook", hook).
			Build()
	}
	return plugin.NewPluginError(name, hook, err)
}
