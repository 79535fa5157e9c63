package principals

import (
	"context"
	"time"

	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/logging"
	"github.com/dpup/bookstore/storage"
)

// Service is the guarded surface for the principal registry. Every caller,
// including the UI collaborator, goes through it; the only writes that skip
// the policy engine are the registration hook and the resolver's privileged
// read.
type Service struct {
	store    storage.Store
	engine   *authz.Engine
	resolver *Resolver
}

// NewService returns a registry service guarded by the given engine.
func NewService(store storage.Store, engine *authz.Engine, resolver *Resolver) *Service {
	return &Service{store: store, engine: engine, resolver: resolver}
}

// Resolver exposes the privileged role resolver for other feature packages.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Get returns a registry row. Admitted for the row's own principal and for
// admins.
func (s *Service) Get(ctx context.Context, subject string) (*Principal, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: Resource,
		ObjectID: subject,
		Action:   ActionRead,
	}); err != nil {
		return nil, err
	}
	var p Principal
	if err := s.store.Read(ctx, subject, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ContactDetails are the fields a principal may change on their own row.
// Role and blocked are deliberately absent: a self-update can never touch
// them, closing the privilege escalation a full-row update would allow. Nil
// fields are left unchanged.
type ContactDetails struct {
	Email   *string
	Name    *string
	Phone   *string
	Address *string
}

// UpdateContact updates the contact fields of a registry row. Admitted for
// the row's own principal and for admins. Role and blocked changes go
// through SetRole and SetBlocked, which are admin only.
func (s *Service) UpdateContact(ctx context.Context, subject string, details ContactDetails) (*Principal, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: Resource,
		ObjectID: subject,
		Action:   ActionUpdate,
	}); err != nil {
		return nil, err
	}

	var p Principal
	if err := s.store.Read(ctx, subject, &p); err != nil {
		return nil, err
	}
	if details.Email != nil {
		p.Email = *details.Email
	}
	if details.Name != nil {
		p.Name = *details.Name
	}
	if details.Phone != nil {
		p.Phone = *details.Phone
	}
	if details.Address != nil {
		p.Address = *details.Address
	}
	p.Updated = time.Now()

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every registry row. Admin only.
func (s *Service) List(ctx context.Context) ([]Principal, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: Resource,
		Object:   &Principal{},
		Action:   ActionList,
	}); err != nil {
		return nil, err
	}
	var out []Principal
	if err := s.store.List(ctx, &out, Principal{}); err != nil {
		return nil, err
	}
	return out, nil
}

// SetRole changes a principal's role. Admin only.
func (s *Service) SetRole(ctx context.Context, subject string, role Role) (*Principal, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: Resource,
		ObjectID: subject,
		Action:   ActionSetRole,
	}); err != nil {
		return nil, err
	}

	var p Principal
	if err := s.store.Read(ctx, subject, &p); err != nil {
		return nil, err
	}
	p.Role = role
	p.Updated = time.Now()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, &p); err != nil {
		return nil, err
	}
	logging.Infow(ctx, "principals: role changed", "subject", subject, "role", role)
	return &p, nil
}

// SetBlocked changes a principal's blocked flag. Admin only.
func (s *Service) SetBlocked(ctx context.Context, subject string, blocked bool) (*Principal, error) {
	if err := s.engine.Authorize(ctx, authz.AuthorizeParams{
		Resource: Resource,
		ObjectID: subject,
		Action:   ActionSetBlocked,
	}); err != nil {
		return nil, err
	}

	var p Principal
	if err := s.store.Read(ctx, subject, &p); err != nil {
		return nil, err
	}
	p.Blocked = blocked
	p.Updated = time.Now()
	if err := s.store.Update(ctx, &p); err != nil {
		return nil, err
	}
	logging.Infow(ctx, "principals: blocked flag changed", "subject", subject, "blocked", blocked)
	return &p, nil
}
