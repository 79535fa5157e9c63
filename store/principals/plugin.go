package principals

import (
	"context"

	"github.com/dpup/bookstore"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/errors"
	"github.com/dpup/bookstore/eventbus"
	"github.com/dpup/bookstore/storage"
)

// Constant name for identifying the principals plugin.
const PluginName = "principals"

// Plugin wires the registry into the application: policies into the authz
// engine, the registration hook onto the event bus, and the guarded service
// for callers.
func Plugin(store storage.Store) *PrincipalsPlugin {
	return &PrincipalsPlugin{store: store}
}

type PrincipalsPlugin struct {
	store   storage.Store
	service *Service
}

// From bookstore.Plugin.
func (p *PrincipalsPlugin) Name() string {
	return PluginName
}

// From bookstore.DependentPlugin.
func (p *PrincipalsPlugin) Deps() []string {
	return []string{authz.PluginName}
}

// From bookstore.InitializablePlugin.
func (p *PrincipalsPlugin) Init(ctx context.Context, r *bookstore.Registry) error {
	engine, ok := r.Get(authz.PluginName).(*authz.Engine)
	if !ok {
		return errors.New("principals: authz engine not registered")
	}

	resolver := NewResolver(p.store)
	RegisterPolicies(engine, resolver, p.store)
	p.service = NewService(p.store, engine, resolver)

	if bus := eventbus.FromContext(ctx); bus != nil {
		NewHook(p.store).Register(bus)
	}
	return nil
}

// Service returns the guarded registry service. Only valid after Init.
func (p *PrincipalsPlugin) Service() *Service {
	return p.service
}
