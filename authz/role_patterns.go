package authz

import (
	"context"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/errors"

	"google.golang.org/grpc/codes"
)

// Compose combines multiple typed role describers into a single
// RoleDescriber. All describers are called and their results are merged,
// which gives the disjunctive composition the policy model depends on: each
// describer contributes roles independently and a new rule never ANDs itself
// onto existing ones.
//
// Example:
//
//	authz.Compose(
//	    authz.OwnershipRole(authz.RoleOwner, func(o *Order) string { return o.Owner }),
//	    authz.StaticRole(authz.RoleAnyone, func(context.Context, auth.Identity, *Order) bool { return true }),
//	)
func Compose[T any](describers ...TypedRoleDescriber[T]) RoleDescriber {
	return RoleDescriberFn(func(ctx context.Context, subject auth.Identity, object any) ([]Role, error) {
		typed, ok := object.(T)
		if !ok {
			var zero T
			return nil, errors.Codef(codes.Internal, "authz: expected type %T, got %T", zero, object)
		}

		var allRoles []Role
		for _, describer := range describers {
			roles, err := describer(ctx, subject, typed)
			if err != nil {
				return nil, err
			}
			allRoles = append(allRoles, roles...)
		}
		return allRoles, nil
	})
}

// ConditionalRole grants a role if an async predicate returns true. Use this
// pattern when role assignment requires I/O, such as a registry lookup.
//
// Example:
//
//	authz.ConditionalRole(authz.RoleAdmin,
//	    func(ctx context.Context, subject auth.Identity, _ *Book) (bool, error) {
//	        role, err := resolver.Resolve(ctx, subject.Subject)
//	        return role == principals.RoleAdmin, err
//	    })
func ConditionalRole[T any](role Role, predicate func(context.Context, auth.Identity, T) (bool, error)) TypedRoleDescriber[T] {
	return func(ctx context.Context, subject auth.Identity, object T) ([]Role, error) {
		match, err := predicate(ctx, subject, object)
		if err != nil {
			return nil, err
		}
		if match {
			return []Role{role}, nil
		}
		return nil, nil
	}
}

// StaticRole grants a role if a sync predicate returns true. Use this pattern
// when role assignment is based purely on object attributes without requiring
// async operations.
func StaticRole[T any](role Role, predicate func(context.Context, auth.Identity, T) bool) TypedRoleDescriber[T] {
	return func(ctx context.Context, subject auth.Identity, object T) ([]Role, error) {
		if predicate(ctx, subject, object) {
			return []Role{role}, nil
		}
		return nil, nil
	}
}

// StaticRoles returns multiple roles based on object attributes.
func StaticRoles[T any](getRoles func(context.Context, auth.Identity, T) []Role) TypedRoleDescriber[T] {
	return func(ctx context.Context, subject auth.Identity, object T) ([]Role, error) {
		return getRoles(ctx, subject, object), nil
	}
}

// GlobalRole grants a role based on context only, ignoring object and
// subject. This is useful for global overrides like superuser checks.
func GlobalRole[T any](role Role, predicate func(context.Context) bool) TypedRoleDescriber[T] {
	return func(ctx context.Context, subject auth.Identity, object T) ([]Role, error) {
		if predicate(ctx) {
			return []Role{role}, nil
		}
		return nil, nil
	}
}

// OwnershipRole grants a role if the subject owns the object. Returns no
// roles for anonymous users (zero-value Identity).
func OwnershipRole[T any](role Role, getOwnerID func(T) string) TypedRoleDescriber[T] {
	return StaticRole(role, func(_ context.Context, subject auth.Identity, object T) bool {
		if subject == (auth.Identity{}) {
			return false
		}
		return getOwnerID(object) == subject.Subject
	})
}

// OwnerRole is OwnershipRole for objects implementing OwnedObject, reading the
// owner from the object itself.
func OwnerRole[T OwnedObject](role Role) TypedRoleDescriber[T] {
	return OwnershipRole(role, func(o T) string { return o.OwnerID() })
}
