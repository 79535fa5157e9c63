package catalog

import (
	"context"

	"github.com/dpup/bookstore"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/errors"
	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/store/principals"
)

// Constant name for identifying the catalog plugin.
const PluginName = "catalog"

// Plugin wires the catalog into the application: policies into the authz
// engine and the guarded service for callers.
func Plugin(store storage.Store) *CatalogPlugin {
	return &CatalogPlugin{store: store}
}

type CatalogPlugin struct {
	store   storage.Store
	service *Service
}

// From bookstore.Plugin.
func (p *CatalogPlugin) Name() string {
	return PluginName
}

// From bookstore.DependentPlugin.
func (p *CatalogPlugin) Deps() []string {
	return []string{authz.PluginName, principals.PluginName}
}

// From bookstore.InitializablePlugin.
func (p *CatalogPlugin) Init(ctx context.Context, r *bookstore.Registry) error {
	engine, ok := r.Get(authz.PluginName).(*authz.Engine)
	if !ok {
		return errors.New("catalog: authz engine not registered")
	}
	pp, ok := r.Get(principals.PluginName).(*principals.PrincipalsPlugin)
	if !ok {
		return errors.New("catalog: principals plugin not registered")
	}

	RegisterPolicies(engine, pp.Service().Resolver(), p.store)
	p.service = NewService(p.store, engine)
	return nil
}

// Service returns the guarded catalog service. Only valid after Init.
func (p *CatalogPlugin) Service() *Service {
	return p.service
}
