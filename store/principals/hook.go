package principals

import (
	"context"
	"time"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/errors"
	"github.com/dpup/bookstore/eventbus"
	"github.com/dpup/bookstore/logging"
	"github.com/dpup/bookstore/storage"
)

// Hook materializes a registry row when the external identity provider
// creates a new identity. It writes directly to the store: registration is a
// system event with no authenticated caller, so it cannot (and must not) pass
// through the policy engine.
type Hook struct {
	store storage.Store
}

// NewHook returns a registration hook backed by the given store.
func NewHook(store storage.Store) *Hook {
	return &Hook{store: store}
}

// Register subscribes the hook to identity-creation events.
func (h *Hook) Register(bus eventbus.EventBus) {
	bus.Subscribe(auth.IdentityCreatedEvent, h.HandleIdentityCreated)
}

// HandleIdentityCreated creates the registry row for a newly created
// identity. Idempotent: duplicate firings for the same identity are no-ops,
// never errors and never duplicate rows.
func (h *Hook) HandleIdentityCreated(ctx context.Context, msg *eventbus.Message) error {
	event, ok := msg.Data.(auth.AuthEvent)
	if !ok {
		return errors.Errorf("principals: unexpected payload %T on %s", msg.Data, msg.Topic)
	}
	return h.Materialize(ctx, event.Identity)
}

// Materialize writes the registry row for the identity, defaulting the role
// to customer and the blocked flag to false.
func (h *Hook) Materialize(ctx context.Context, identity auth.Identity) error {
	if identity.Subject == "" {
		return errors.New("principals: identity has no subject")
	}

	now := time.Now()
	p := &Principal{
		Subject: identity.Subject,
		Email:   identity.Email,
		Name:    identity.Name,
		Role:    RoleCustomer,
		Blocked: false,
		Created: now,
		Updated: now,
	}
	if err := h.store.Create(ctx, p); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// Replayed event; the row is already materialized.
			logging.Debugw(ctx, "principals: registry row already exists", "subject", identity.Subject)
			return nil
		}
		return err
	}
	logging.Infow(ctx, "principals: registry row materialized", "subject", identity.Subject)
	return nil
}
