package principals

import (
	"context"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/storage"
)

// Resource key for the principal registry.
const Resource = "principal"

// Actions on the principal registry.
const (
	ActionRead       = authz.Action("principals.read")
	ActionUpdate     = authz.Action("principals.update")
	ActionList       = authz.Action("principals.list")
	ActionSetRole    = authz.Action("principals.set_role")
	ActionSetBlocked = authz.Action("principals.set_blocked")
)

// RoleBlocked marks a caller whose registry row has the blocked flag set and
// who is reaching for someone else's row without admin rights. It carries
// Deny policies on every registry action. Expressed as a role rather than a
// hard failure so the self-identity and admin branches always stay open:
// deny-wins only fires when neither branch granted the role in the first
// place, so a blocked principal can still read and update their own row and
// an admin can always manage blocked accounts.
const RoleBlocked = authz.Role("blocked")

// RegisterPolicies wires the registry's predicates into the engine:
//
//   - read/update own row: caller identity matches the row
//   - read all rows, change role or blocked flag: admin only
//   - the block gate, layered as Deny policies for RoleBlocked
func RegisterPolicies(e *authz.Engine, resolver *Resolver, store storage.Store) {
	e.DefinePolicy(authz.Allow, authz.RoleSelf, ActionRead)
	e.DefinePolicy(authz.Allow, authz.RoleSelf, ActionUpdate)
	e.DefinePolicy(authz.Allow, authz.RoleAdmin, ActionRead)
	e.DefinePolicy(authz.Allow, authz.RoleAdmin, ActionUpdate)
	e.DefinePolicy(authz.Allow, authz.RoleAdmin, ActionList)
	e.DefinePolicy(authz.Allow, authz.RoleAdmin, ActionSetRole)
	e.DefinePolicy(authz.Allow, authz.RoleAdmin, ActionSetBlocked)

	for _, action := range []authz.Action{ActionRead, ActionUpdate, ActionList, ActionSetRole, ActionSetBlocked} {
		e.DefinePolicy(authz.Deny, RoleBlocked, action)
	}

	e.RegisterObjectFetcher(Resource, authz.AsObjectFetcher(
		authz.Fetcher(func(ctx context.Context, subject string) (*Principal, error) {
			var p Principal
			if err := store.Read(ctx, subject, &p); err != nil {
				return nil, err
			}
			return &p, nil
		}),
	))

	e.RegisterRoleDescriber(Resource, Describer(resolver))
}

// Describer computes the caller's roles relative to a registry row.
func Describer(resolver *Resolver) authz.RoleDescriber {
	return authz.Compose(
		authz.StaticRole(authz.RoleSelf, func(_ context.Context, subject auth.Identity, p *Principal) bool {
			return subject.Subject != "" && subject.Subject == p.Subject
		}),
		authz.ConditionalRole(authz.RoleAdmin, func(ctx context.Context, subject auth.Identity, _ *Principal) (bool, error) {
			return resolver.IsAdmin(ctx, subject.Subject)
		}),
		// The block gate. Never granted on the caller's own row or to admins,
		// which is what keeps those branches open.
		authz.ConditionalRole(RoleBlocked, func(ctx context.Context, subject auth.Identity, p *Principal) (bool, error) {
			if !p.Blocked || subject.Subject == p.Subject {
				return false, nil
			}
			admin, err := resolver.IsAdmin(ctx, subject.Subject)
			if err != nil {
				return false, err
			}
			return !admin, nil
		}),
	)
}
