package reviews

import (
	"context"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/storage"
)

// Resource key for reviews. Fetcher keys are composite, see Key.
const Resource = "review"

// Actions on reviews. There is no admin override on writes; a review
// belongs to its author alone.
const (
	ActionRead   = authz.Action("reviews.read")
	ActionList   = authz.Action("reviews.list")
	ActionCreate = authz.Action("reviews.create")
	ActionUpdate = authz.Action("reviews.update")
	ActionDelete = authz.Action("reviews.delete")
)

// RegisterPolicies wires the review predicates into the engine: reads are
// public, writes are admitted only for the review's author.
func RegisterPolicies(e *authz.Engine, store storage.Store) {
	e.DefinePolicy(authz.Allow, authz.RoleAnyone, ActionRead)
	e.DefinePolicy(authz.Allow, authz.RoleAnyone, ActionList)
	e.DefinePolicy(authz.Allow, authz.RoleOwner, ActionCreate)
	e.DefinePolicy(authz.Allow, authz.RoleOwner, ActionUpdate)
	e.DefinePolicy(authz.Allow, authz.RoleOwner, ActionDelete)

	e.RegisterObjectFetcher(Resource, authz.AsObjectFetcher(
		authz.Fetcher(func(ctx context.Context, key string) (*Review, error) {
			var r Review
			if err := store.Read(ctx, key, &r); err != nil {
				return nil, err
			}
			return &r, nil
		}),
	))
	e.RegisterRoleDescriber(Resource, authz.Compose(
		authz.StaticRole(authz.RoleAnyone, func(context.Context, auth.Identity, *Review) bool { return true }),
		authz.OwnerRole[*Review](authz.RoleOwner),
	))
}
