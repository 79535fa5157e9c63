// Package authz implements the row-level authorization engine which gates
// every storage operation in the bookstore.
//
// Policies are defined in terms of roles and actions, both of which are
// application defined strings. For example, the "admin" role might be allowed
// to perform the "books.update" action.
//
// Roles are context dependent and determined by application provided
// functions called "Role Describers". Role Describers return a list of roles
// for a given authenticated identity and target row. For example, a user may
// have the role "owner" for a specific order and "self" for their own
// registry row.
//
// To map an incoming request to a row, the engine uses "Object Fetchers"
// registered against a resource key. For create operations the candidate row
// itself can be passed instead, so insert-time checks need no fetch.
//
// Evaluation composes disjunctively: any Allow policy held by any granted
// role admits the operation. Deny policies take precedence over Allow, which
// is how restrictive gates (such as the blocked-account gate) are layered on
// top of permissive rules. When no policy matches, the action's default
// effect applies, which is Deny unless stated otherwise.
//
// Denied operations surface as a generic permission error carrying no
// information about which rule failed, so callers cannot probe for row
// existence. Full decision detail is available to the audit logger and the
// request-scoped log fields only.
package authz

import (
	"context"

	"github.com/dpup/bookstore/auth"
)

type Role string

type Action string

type Effect int

const (
	Deny Effect = iota
	Allow
)

func (e Effect) String() string {
	if e == Deny {
		return "DENY"
	}
	return "ALLOW"
}

type effectList []Effect

// Combine returns the combined effect using AWS IAM-style precedence:
// 1. Explicit Deny always wins
// 2. Explicit Allow wins if no Deny exists
// 3. Default effect if no policies match
func (e effectList) Combine(defaultEffect Effect) Effect {
	if len(e) == 0 {
		return defaultEffect
	}
	for _, effect := range e {
		if effect == Deny {
			return Deny
		}
	}
	for _, effect := range e {
		if effect == Allow {
			return Allow
		}
	}
	return defaultEffect
}

// AuthzObject is the base interface for all objects used in authorization.
// While not strictly necessary, it is recommended to implement this interface
// for type safety.
type AuthzObject interface {
	// AuthzType returns a string identifier for the object type.
	AuthzType() string
}

// OwnedObject represents objects that have an owner.
type OwnedObject interface {
	AuthzObject
	// OwnerID returns the ID of the object's owner.
	OwnerID() string
}

// ObjectFetcher is an interface for fetching objects based on a request
// parameter.
type ObjectFetcher interface {
	// FetchObject retrieves an object based on the provided key.
	FetchObject(ctx context.Context, key any) (any, error)
}

// RoleDescriber is an interface for describing roles relative to a type.
type RoleDescriber interface {
	// DescribeRoles determines the roles a subject has relative to an object.
	DescribeRoles(ctx context.Context, subject auth.Identity, object any) ([]Role, error)
}

// TypedObjectFetcher is a function type for fetching objects with type safety.
type TypedObjectFetcher[K comparable, T any] func(ctx context.Context, key K) (T, error)

// TypedRoleDescriber is a function type for describing roles with type safety.
type TypedRoleDescriber[T any] func(ctx context.Context, subject auth.Identity, object T) ([]Role, error)
