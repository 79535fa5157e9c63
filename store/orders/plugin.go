package orders

import (
	"context"

	"github.com/dpup/bookstore"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/errors"
	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/store/catalog"
	"github.com/dpup/bookstore/store/principals"
)

// Constant name for identifying the orders plugin.
const PluginName = "orders"

// Plugin wires orders into the application: policies into the authz engine
// and the guarded service for callers.
func Plugin(store storage.Store) *OrdersPlugin {
	return &OrdersPlugin{store: store}
}

type OrdersPlugin struct {
	store   storage.Store
	service *Service
}

// From bookstore.Plugin.
func (p *OrdersPlugin) Name() string {
	return PluginName
}

// From bookstore.DependentPlugin.
func (p *OrdersPlugin) Deps() []string {
	return []string{authz.PluginName, principals.PluginName, catalog.PluginName}
}

// From bookstore.InitializablePlugin.
func (p *OrdersPlugin) Init(ctx context.Context, r *bookstore.Registry) error {
	engine, ok := r.Get(authz.PluginName).(*authz.Engine)
	if !ok {
		return errors.New("orders: authz engine not registered")
	}
	pp, ok := r.Get(principals.PluginName).(*principals.PrincipalsPlugin)
	if !ok {
		return errors.New("orders: principals plugin not registered")
	}

	RegisterPolicies(engine, pp.Service().Resolver(), p.store)
	p.service = NewService(p.store, engine)
	return nil
}

// Service returns the guarded order service. Only valid after Init.
func (p *OrdersPlugin) Service() *Service {
	return p.service
}
