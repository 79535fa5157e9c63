package principals_test

import (
	"context"
	"testing"
	"time"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/eventbus"
	"github.com/dpup/bookstore/eventbus/membus"
	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/storage/memorystore"
	"github.com/dpup/bookstore/store/principals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store storage.Store, subject string, role principals.Role, blocked bool) {
	t.Helper()
	now := time.Now()
	require.NoError(t, store.Create(context.Background(), &principals.Principal{
		Subject: subject,
		Email:   subject + "@example.com",
		Name:    subject,
		Role:    role,
		Blocked: blocked,
		Created: now,
		Updated: now,
	}))
}

func newFixture(t *testing.T) (*principals.Service, storage.Store) {
	t.Helper()
	store := memorystore.New()
	engine := authz.New()
	resolver := principals.NewResolver(store)
	principals.RegisterPolicies(engine, resolver, store)

	seed(t, store, "alice", principals.RoleCustomer, false)
	seed(t, store, "root", principals.RoleAdmin, false)
	seed(t, store, "mallory", principals.RoleCustomer, true)

	return principals.NewService(store, engine, resolver), store
}

func as(t *testing.T, subject string) context.Context {
	t.Helper()
	identity := auth.Identity{}
	if subject != "" {
		identity = auth.Identity{Subject: subject, Provider: "test", Email: subject + "@example.com"}
	}
	return auth.WithIdentityForTest(t.Context(), identity)
}

func TestResolver(t *testing.T) {
	_, store := newFixture(t)
	resolver := principals.NewResolver(store)
	ctx := context.Background()

	role, err := resolver.Resolve(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, principals.RoleAdmin, role)

	role, err = resolver.Resolve(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, principals.RoleCustomer, role)

	// Absent rows resolve to no role, never an error.
	role, err = resolver.Resolve(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, principals.RoleNone, role)

	admin, err := resolver.IsAdmin(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, admin)
}

func TestSelfReadAndUpdate(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := as(t, "alice")

	got, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Subject)

	phone := "555-0199"
	updated, err := svc.UpdateContact(ctx, "alice", principals.ContactDetails{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", updated.Phone)
}

func TestReadOtherRowDenied(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Get(as(t, "alice"), "root")
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestBlockedSelfAccessStaysOpen(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := as(t, "mallory")

	// The block gate never closes the self-identity branch.
	got, err := svc.Get(ctx, "mallory")
	require.NoError(t, err)
	assert.True(t, got.Blocked)

	phone := "555-0100"
	updated, err := svc.UpdateContact(ctx, "mallory", principals.ContactDetails{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", updated.Phone)
}

func TestBlockedCannotReadOthers(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Get(as(t, "mallory"), "alice")
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestReadingBlockedRowDenied(t *testing.T) {
	svc, _ := newFixture(t)

	// An ordinary principal gets nothing from a blocked row.
	_, err := svc.Get(as(t, "alice"), "mallory")
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestAdminManagesBlockedAccounts(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := as(t, "root")

	// The admin branch stays open regardless of the blocked flag.
	got, err := svc.Get(ctx, "mallory")
	require.NoError(t, err)
	assert.True(t, got.Blocked)

	updated, err := svc.SetBlocked(ctx, "mallory", false)
	require.NoError(t, err)
	assert.False(t, updated.Blocked)
}

func TestAnonymousDeniedRegistryRead(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Get(as(t, ""), "alice")
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
}

func TestListAdminOnly(t *testing.T) {
	svc, _ := newFixture(t)

	all, err := svc.List(as(t, "root"))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.List(as(t, "alice"))
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestSelfCannotEscalate(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := as(t, "alice")

	// Role and blocked changes are separate admin-only actions; a self-update
	// has no way to reach them.
	_, err := svc.SetRole(ctx, "alice", principals.RoleAdmin)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	_, err = svc.SetBlocked(ctx, "alice", false)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestAdminSetsRole(t *testing.T) {
	svc, _ := newFixture(t)

	updated, err := svc.SetRole(as(t, "root"), "alice", principals.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, principals.RoleAdmin, updated.Role)
}

func TestHookIdempotent(t *testing.T) {
	store := memorystore.New()
	hook := principals.NewHook(store)
	ctx := context.Background()
	identity := auth.Identity{Subject: "newcomer", Email: "newcomer@example.com", Name: "New Comer"}

	require.NoError(t, hook.Materialize(ctx, identity))
	require.NoError(t, hook.Materialize(ctx, identity), "replay must be a no-op")

	var rows []principals.Principal
	require.NoError(t, store.List(ctx, &rows, principals.Principal{}))
	require.Len(t, rows, 1)
	assert.Equal(t, principals.RoleCustomer, rows[0].Role)
	assert.False(t, rows[0].Blocked)
}

func TestHookViaEventBus(t *testing.T) {
	store := memorystore.New()
	bus := membus.New(t.Context())
	principals.NewHook(store).Register(bus)

	bus.Publish(auth.IdentityCreatedEvent, auth.AuthEvent{
		Identity: auth.Identity{Subject: "reader", Email: "reader@example.com"},
	})
	require.NoError(t, eventbus.WaitTimeout(t.Context(), bus, time.Second))

	var p principals.Principal
	require.NoError(t, store.Read(context.Background(), "reader", &p))
	assert.Equal(t, principals.RoleCustomer, p.Role)
}
