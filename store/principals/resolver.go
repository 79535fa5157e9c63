package principals

import (
	"context"

	"github.com/dpup/bookstore/errors"
	"github.com/dpup/bookstore/storage"
)

// Resolver answers "what role does this subject hold" with a direct,
// privileged read of the registry. It deliberately bypasses the policy
// engine: admin checks run inside policy evaluation, and routing them back
// through the engine would recurse into the very policies being evaluated.
//
// Resolve is side-effect free and must stay that way.
type Resolver struct {
	store storage.Store
}

// NewResolver returns a Resolver backed by the given store.
func NewResolver(store storage.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the role recorded for the subject. A subject with no
// registry row resolves to RoleNone, not an error; callers must treat
// RoleNone as an ordinary unprivileged principal. This covers the window
// between identity creation and registration-hook completion.
func (r *Resolver) Resolve(ctx context.Context, subject string) (Role, error) {
	if subject == "" {
		return RoleNone, nil
	}
	var p Principal
	if err := r.store.Read(ctx, subject, &p); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return RoleNone, nil
		}
		return RoleNone, err
	}
	return p.Role, nil
}

// IsAdmin reports whether the subject currently resolves to an admin.
func (r *Resolver) IsAdmin(ctx context.Context, subject string) (bool, error) {
	role, err := r.Resolve(ctx, subject)
	if err != nil {
		return false, err
	}
	return role == RoleAdmin, nil
}
