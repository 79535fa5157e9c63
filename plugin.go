package bookstore

import (
	"context"
	"fmt"
)

// Plugin is a named unit of server functionality. The bookstore's store
// packages (principals, catalog, orders, reviews) each expose one so the
// server can assemble them and bring them up in the right order.
type Plugin interface {
	// Name identifies the plugin for lookup and dependency resolution.
	Name() string
}

// DependentPlugin is implemented by plugins that require other plugins to be
// registered and initialized before them. The catalog plugin depends on
// principals this way.
type DependentPlugin interface {
	// Deps returns the names of required plugins.
	Deps() []string
}

// OptionalDependentPlugin is implemented by plugins that should come up after
// certain others when those are registered, but work without them.
type OptionalDependentPlugin interface {
	// OptDeps returns the names of optional plugins.
	OptDeps() []string
}

// InitializablePlugin is implemented by plugins with setup that can't happen
// at construction, such as registering policies with the authz engine or
// subscribing to the event bus.
type InitializablePlugin interface {
	// Init is called once, after everything the plugin depends on has been
	// initialized.
	Init(ctx context.Context, r *Registry) error
}

// Registry holds the registered plugins and drives their initialization.
type Registry struct {
	plugins map[string]Plugin
	keys    []string
}

// Get returns the plugin registered under key, or nil.
func (r *Registry) Get(key string) Plugin {
	if p, ok := r.plugins[key]; ok {
		return p
	}
	return nil
}

// Register adds a plugin. Registering the same name twice replaces the
// earlier plugin.
func (r *Registry) Register(plugin Plugin) {
	if r.plugins == nil {
		r.plugins = map[string]Plugin{}
	}
	n := plugin.Name()
	r.plugins[n] = plugin
	r.keys = append(r.keys, n)
}

// Init checks the dependency graph, then initializes every registered plugin
// in dependency order. A missing required dependency or a cycle fails the
// whole startup before any plugin runs.
func (r *Registry) Init(ctx context.Context) error {
	if r.plugins == nil {
		return nil
	}

	visiting := make(map[string]bool)
	for _, key := range r.keys {
		if err := r.validateDeps(key, visiting, true); err != nil {
			return err
		}
	}

	initialized := make(map[string]bool)
	for _, key := range r.keys {
		if err := r.initPlugin(ctx, key, initialized); err != nil {
			return err
		}
	}

	return nil
}

// validateDeps walks the graph from key, confirming required deps are
// registered and rejecting cycles.
func (r *Registry) validateDeps(key string, visiting map[string]bool, required bool) error {
	if visiting[key] {
		return fmt.Errorf("plugin: dependency cycle detected involving '%v'", key)
	}

	plugin, ok := r.plugins[key]
	if !ok {
		if !required {
			return nil
		}
		return fmt.Errorf("plugin: missing dependency, '%v' not registered", key)
	}

	if d, ok := plugin.(DependentPlugin); ok {
		visiting[key] = true
		for _, dep := range d.Deps() {
			if err := r.validateDeps(dep, visiting, true); err != nil {
				return err
			}
		}
		delete(visiting, key)
	}

	if d, ok := plugin.(OptionalDependentPlugin); ok {
		visiting[key] = true
		for _, dep := range d.OptDeps() {
			if err := r.validateDeps(dep, visiting, false); err != nil {
				return err
			}
		}
		delete(visiting, key)
	}

	return nil
}

// initPlugin initializes key's dependencies, then key itself.
func (r *Registry) initPlugin(ctx context.Context, key string, initialized map[string]bool) error {
	if initialized[key] {
		return nil
	}

	plugin, ok := r.plugins[key]
	if !ok {
		return fmt.Errorf("plugin '%v' not registered", key)
	}

	if d, ok := plugin.(DependentPlugin); ok {
		for _, dep := range d.Deps() {
			if err := r.initPlugin(ctx, dep, initialized); err != nil {
				return err
			}
		}
	}

	if p, ok := plugin.(InitializablePlugin); ok {
		if err := p.Init(ctx, r); err != nil {
			return fmt.Errorf("plugin: failed to initialize '%v': %w", key, err)
		}
	}

	initialized[key] = true
	return nil
}
