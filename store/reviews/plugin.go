package reviews

import (
	"context"

	"github.com/dpup/bookstore"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/errors"
	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/store/catalog"
)

// Constant name for identifying the reviews plugin.
const PluginName = "reviews"

// Plugin wires reviews into the application: policies into the authz engine
// and the guarded service for callers.
func Plugin(store storage.Store) *ReviewsPlugin {
	return &ReviewsPlugin{store: store}
}

type ReviewsPlugin struct {
	store   storage.Store
	service *Service
}

// From bookstore.Plugin.
func (p *ReviewsPlugin) Name() string {
	return PluginName
}

// From bookstore.DependentPlugin.
func (p *ReviewsPlugin) Deps() []string {
	return []string{authz.PluginName, catalog.PluginName}
}

// From bookstore.InitializablePlugin.
func (p *ReviewsPlugin) Init(ctx context.Context, r *bookstore.Registry) error {
	engine, ok := r.Get(authz.PluginName).(*authz.Engine)
	if !ok {
		return errors.New("reviews: authz engine not registered")
	}
	RegisterPolicies(engine, p.store)
	p.service = NewService(p.store, engine)
	return nil
}

// Service returns the guarded review service. Only valid after Init.
func (p *ReviewsPlugin) Service() *Service {
	return p.service
}
