package orders

import (
	"context"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/store/principals"
)

// Resource keys. Line items authorize against their parent order, so the
// order_item fetcher is keyed on the parent order's ID.
const (
	OrderResource     = "order"
	OrderItemResource = "order_item"
)

// Actions on orders.
const (
	ActionCreate       = authz.Action("orders.create")
	ActionRead         = authz.Action("orders.read")
	ActionUpdateStatus = authz.Action("orders.update_status")
	ActionList         = authz.Action("orders.list")
	ActionListOwn      = authz.Action("orders.list_own")
)

// Actions on line items.
const (
	ActionCreateItems = authz.Action("order_items.create")
	ActionReadItems   = authz.Action("order_items.read")
)

// RegisterPolicies wires the order predicates into the engine. Creation is
// admitted only when the candidate row's owner is the caller. Reads are
// admitted for the owner or an admin. Status updates and full listings are
// admin only. Line item access follows the parent order's ownership.
func RegisterPolicies(e *authz.Engine, resolver *principals.Resolver, store storage.Store) {
	e.DefinePolicy(authz.Allow, authz.RoleOwner, ActionCreate)
	e.DefinePolicy(authz.Allow, authz.RoleOwner, ActionRead)
	e.DefinePolicy(authz.Allow, authz.RoleAdmin, ActionRead)
	e.DefinePolicy(authz.Allow, authz.RoleAdmin, ActionUpdateStatus)
	e.DefinePolicy(authz.Allow, authz.RoleAdmin, ActionList)
	e.DefinePolicy(authz.Allow, authz.RoleOwner, ActionListOwn)

	e.DefinePolicy(authz.Allow, authz.RoleOwner, ActionCreateItems)
	e.DefinePolicy(authz.Allow, authz.RoleOwner, ActionReadItems)
	e.DefinePolicy(authz.Allow, authz.RoleAdmin, ActionReadItems)

	fetchOrder := authz.Fetcher(func(ctx context.Context, id string) (*Order, error) {
		var o Order
		if err := store.Read(ctx, id, &o); err != nil {
			return nil, err
		}
		return &o, nil
	})
	e.RegisterObjectFetcher(OrderResource, authz.AsObjectFetcher(fetchOrder))
	e.RegisterObjectFetcher(OrderItemResource, authz.AsObjectFetcher(fetchOrder))

	describer := authz.Compose(
		authz.OwnerRole[*Order](authz.RoleOwner),
		authz.ConditionalRole(authz.RoleAdmin, func(ctx context.Context, subject auth.Identity, _ *Order) (bool, error) {
			return resolver.IsAdmin(ctx, subject.Subject)
		}),
	)
	e.RegisterRoleDescriber(OrderResource, describer)
	e.RegisterRoleDescriber(OrderItemResource, describer)
}
