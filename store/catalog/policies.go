package catalog

import (
	"context"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/store/principals"
)

// Resource keys for the catalog.
const (
	CategoryResource = "category"
	BookResource     = "book"
)

// Actions on categories.
const (
	ActionReadCategory   = authz.Action("categories.read")
	ActionListCategories = authz.Action("categories.list")
	ActionCreateCategory = authz.Action("categories.create")
	ActionUpdateCategory = authz.Action("categories.update")
	ActionDeleteCategory = authz.Action("categories.delete")
)

// Actions on books.
const (
	ActionReadBook   = authz.Action("books.read")
	ActionListBooks  = authz.Action("books.list")
	ActionCreateBook = authz.Action("books.create")
	ActionUpdateBook = authz.Action("books.update")
	ActionDeleteBook = authz.Action("books.delete")
)

// RegisterPolicies wires the catalog predicates into the engine: reads are
// admitted for anyone, including anonymous callers; writes require the
// caller to resolve to an admin.
func RegisterPolicies(e *authz.Engine, resolver *principals.Resolver, store storage.Store) {
	for _, action := range []authz.Action{ActionReadCategory, ActionListCategories, ActionReadBook, ActionListBooks} {
		e.DefinePolicy(authz.Allow, authz.RoleAnyone, action)
	}
	for _, action := range []authz.Action{
		ActionCreateCategory, ActionUpdateCategory, ActionDeleteCategory,
		ActionCreateBook, ActionUpdateBook, ActionDeleteBook,
	} {
		e.DefinePolicy(authz.Allow, authz.RoleAdmin, action)
	}

	e.RegisterObjectFetcher(CategoryResource, authz.AsObjectFetcher(
		authz.Fetcher(func(ctx context.Context, id string) (*Category, error) {
			var c Category
			if err := store.Read(ctx, id, &c); err != nil {
				return nil, err
			}
			return &c, nil
		}),
	))
	e.RegisterObjectFetcher(BookResource, authz.AsObjectFetcher(
		authz.Fetcher(func(ctx context.Context, id string) (*Book, error) {
			var b Book
			if err := store.Read(ctx, id, &b); err != nil {
				return nil, err
			}
			return &b, nil
		}),
	))

	e.RegisterRoleDescriber(CategoryResource, describer[*Category](resolver))
	e.RegisterRoleDescriber(BookResource, describer[*Book](resolver))
}

// describer grants RoleAnyone unconditionally and RoleAdmin via the
// privileged resolver. Catalog rows carry no ownership.
func describer[T any](resolver *principals.Resolver) authz.RoleDescriber {
	return authz.Compose(
		authz.StaticRole(authz.RoleAnyone, func(context.Context, auth.Identity, T) bool { return true }),
		authz.ConditionalRole(authz.RoleAdmin, func(ctx context.Context, subject auth.Identity, _ T) (bool, error) {
			return resolver.IsAdmin(ctx, subject.Subject)
		}),
	)
}
