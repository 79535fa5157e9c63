package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/storage/memorystore"
	"github.com/dpup/bookstore/store/catalog"
	"github.com/dpup/bookstore/store/orders"
	"github.com/dpup/bookstore/store/principals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPrincipal(t *testing.T, store storage.Store, subject string, role principals.Role) {
	t.Helper()
	now := time.Now()
	require.NoError(t, store.Create(context.Background(), &principals.Principal{
		Subject: subject,
		Email:   subject + "@example.com",
		Name:    subject,
		Role:    role,
		Created: now,
		Updated: now,
	}))
}

func seedBook(t *testing.T, store storage.Store, id string, price int64) {
	t.Helper()
	now := time.Now()
	require.NoError(t, store.Create(context.Background(), &catalog.Book{
		ID:      id,
		Title:   "Book " + id,
		Author:  "Author",
		Price:   price,
		Stock:   100,
		Created: now,
		Updated: now,
	}))
}

func newFixture(t *testing.T) (*orders.Service, storage.Store) {
	t.Helper()
	store := memorystore.New()
	engine := authz.New()
	resolver := principals.NewResolver(store)
	principals.RegisterPolicies(engine, resolver, store)
	orders.RegisterPolicies(engine, resolver, store)

	seedPrincipal(t, store, "alice", principals.RoleCustomer)
	seedPrincipal(t, store, "bob", principals.RoleCustomer)
	seedPrincipal(t, store, "root", principals.RoleAdmin)
	seedBook(t, store, "dune", 1299)
	seedBook(t, store, "hyperion", 1499)

	return orders.NewService(store, engine), store
}

func as(t *testing.T, subject string) context.Context {
	t.Helper()
	identity := auth.Identity{}
	if subject != "" {
		identity = auth.Identity{Subject: subject, Provider: "test", Email: subject + "@example.com"}
	}
	return auth.WithIdentityForTest(t.Context(), identity)
}

func TestCreateOrder(t *testing.T) {
	svc, _ := newFixture(t)

	o, err := svc.Create(as(t, "alice"), orders.CreateParams{
		ShippingAddress: "1 Main St",
		Lines: []orders.Line{
			{BookID: "dune", Quantity: 2},
			{BookID: "hyperion", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", o.Owner)
	assert.Equal(t, orders.StatusConfirmed, o.Status)
	assert.Equal(t, int64(2*1299+1499), o.Total)

	items, err := svc.Items(as(t, "alice"), o.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// Unit prices are captured at purchase time.
	for _, item := range items {
		if item.BookID == "dune" {
			assert.Equal(t, int64(1299), item.UnitPrice)
			assert.Equal(t, 2, item.Quantity)
		}
	}
}

func TestCreateOrderRequiresIdentity(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Create(as(t, ""), orders.CreateParams{
		Lines: []orders.Line{{BookID: "dune", Quantity: 1}},
	})
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
}

func TestCreateOrderRejectsEmpty(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Create(as(t, "alice"), orders.CreateParams{})
	assert.ErrorIs(t, err, orders.ErrEmptyOrder)
}

// The owner field always comes from the caller's identity, so inserting an
// order on someone else's behalf is structurally impossible; a forged row
// pushed at the engine directly is denied.
func TestCreateOrderOwnershipEnforced(t *testing.T) {
	_, store := newFixture(t)
	engine := authz.New()
	resolver := principals.NewResolver(store)
	orders.RegisterPolicies(engine, resolver, store)

	forged := &orders.Order{ID: "o1", Owner: "alice", Status: orders.StatusConfirmed}
	err := engine.Authorize(as(t, "bob"), authz.AuthorizeParams{
		Resource: orders.OrderResource,
		Object:   forged,
		Action:   orders.ActionCreate,
	})
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	err = engine.Authorize(as(t, "alice"), authz.AuthorizeParams{
		Resource: orders.OrderResource,
		Object:   forged,
		Action:   orders.ActionCreate,
	})
	assert.NoError(t, err)
}

func TestOrderReadOwnerOrAdmin(t *testing.T) {
	svc, _ := newFixture(t)

	o, err := svc.Create(as(t, "alice"), orders.CreateParams{
		Lines: []orders.Line{{BookID: "dune", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.Get(as(t, "alice"), o.ID)
	assert.NoError(t, err)

	_, err = svc.Get(as(t, "root"), o.ID)
	assert.NoError(t, err)

	_, err = svc.Get(as(t, "bob"), o.ID)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	// The denial does not reveal whether the order exists.
	_, missing := svc.Get(as(t, "bob"), "no-such-order")
	assert.ErrorIs(t, missing, authz.ErrPermissionDenied)
}

func TestLineItemsFollowParentOrder(t *testing.T) {
	svc, _ := newFixture(t)

	o, err := svc.Create(as(t, "alice"), orders.CreateParams{
		Lines: []orders.Line{{BookID: "dune", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.Items(as(t, "bob"), o.ID)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	items, err := svc.Items(as(t, "root"), o.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// Only the parent order's owner can append lines.
	_, err = svc.AddItem(as(t, "bob"), o.ID, orders.Line{BookID: "hyperion", Quantity: 1})
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	item, err := svc.AddItem(as(t, "alice"), o.ID, orders.Line{BookID: "hyperion", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1499), item.UnitPrice)

	updated, err := svc.Get(as(t, "alice"), o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1299+1499), updated.Total)
}

func TestListMine(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Create(as(t, "alice"), orders.CreateParams{
		Lines: []orders.Line{{BookID: "dune", Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.Create(as(t, "bob"), orders.CreateParams{
		Lines: []orders.Line{{BookID: "hyperion", Quantity: 1}},
	})
	require.NoError(t, err)

	mine, err := svc.ListMine(as(t, "alice"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "alice", mine[0].Owner)

	all, err := svc.ListAll(as(t, "root"))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListAll(as(t, "alice"))
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestUpdateStatusAdminOnly(t *testing.T) {
	svc, _ := newFixture(t)

	o, err := svc.Create(as(t, "alice"), orders.CreateParams{
		Lines: []orders.Line{{BookID: "dune", Quantity: 1}},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(as(t, "root"), o.ID, orders.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDelivered, updated.Status)

	// Customers cannot advance their own orders.
	_, err = svc.UpdateStatus(as(t, "alice"), o.ID, orders.StatusCancelled)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	// The policy layer admits irregular moves for admins; they are only
	// logged.
	rolled, err := svc.UpdateStatus(as(t, "root"), o.ID, orders.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, rolled.Status)
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to orders.Status
		want     bool
	}{
		{orders.StatusPending, orders.StatusConfirmed, true},
		{orders.StatusPending, orders.StatusCancelled, true},
		{orders.StatusConfirmed, orders.StatusShipped, true},
		{orders.StatusConfirmed, orders.StatusCancelled, true},
		{orders.StatusShipped, orders.StatusDelivered, true},
		{orders.StatusPending, orders.StatusDelivered, false},
		{orders.StatusDelivered, orders.StatusPending, false},
		{orders.StatusCancelled, orders.StatusConfirmed, false},
		{orders.StatusShipped, orders.StatusCancelled, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, orders.ValidTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}
