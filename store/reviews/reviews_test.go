package reviews_test

import (
	"context"
	"testing"
	"time"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/storage/memorystore"
	"github.com/dpup/bookstore/store/catalog"
	"github.com/dpup/bookstore/store/reviews"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*reviews.Service, storage.Store) {
	t.Helper()
	store := memorystore.New()
	engine := authz.New()
	reviews.RegisterPolicies(engine, store)

	now := time.Now()
	require.NoError(t, store.Create(context.Background(), &catalog.Book{
		ID:      "dune",
		Title:   "Dune",
		Author:  "Frank Herbert",
		Price:   1299,
		Created: now,
		Updated: now,
	}))

	return reviews.NewService(store, engine), store
}

func as(t *testing.T, subject string) context.Context {
	t.Helper()
	identity := auth.Identity{}
	if subject != "" {
		identity = auth.Identity{Subject: subject, Provider: "test", Email: subject + "@example.com"}
	}
	return auth.WithIdentityForTest(t.Context(), identity)
}

func TestCreateReview(t *testing.T) {
	svc, _ := newFixture(t)

	r, err := svc.Create(as(t, "alice"), "dune", 5, "A classic.")
	require.NoError(t, err)
	assert.Equal(t, "alice", r.Owner)
	assert.Equal(t, 5, r.Rating)

	_, err = svc.Create(as(t, ""), "dune", 4, "")
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
}

func TestOneReviewPerBook(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := as(t, "alice")

	_, err := svc.Create(ctx, "dune", 5, "A classic.")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "dune", 1, "Changed my mind.")
	assert.ErrorIs(t, err, reviews.ErrAlreadyReviewed)

	// Changing an existing review goes through Update.
	r, err := svc.Update(ctx, "dune", 3, "Changed my mind.")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Rating)
}

func TestReviewsArePublic(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Create(as(t, "alice"), "dune", 5, "A classic.")
	require.NoError(t, err)

	got, err := svc.Get(as(t, ""), "dune", "alice")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Rating)

	all, err := svc.ListForBook(as(t, ""), "dune")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOnlyAuthorManagesReview(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Create(as(t, "alice"), "dune", 5, "A classic.")
	require.NoError(t, err)

	// Bob's update targets his own (nonexistent) review, never Alice's.
	_, err = svc.Update(as(t, "bob"), "dune", 1, "")
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	err = svc.Delete(as(t, "bob"), "dune")
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	got, err := svc.Get(as(t, ""), "dune", "alice")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Rating)

	require.NoError(t, svc.Delete(as(t, "alice"), "dune"))
	_, err = svc.Get(as(t, ""), "dune", "alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAggregateTracksReviews(t *testing.T) {
	svc, store := newFixture(t)

	_, err := svc.Create(as(t, "alice"), "dune", 5, "")
	require.NoError(t, err)
	_, err = svc.Create(as(t, "bob"), "dune", 2, "")
	require.NoError(t, err)

	var book catalog.Book
	require.NoError(t, store.Read(context.Background(), "dune", &book))
	assert.Equal(t, 2, book.ReviewCount)
	assert.InDelta(t, 3.5, book.Rating, 0.001)

	require.NoError(t, svc.Delete(as(t, "bob"), "dune"))
	require.NoError(t, store.Read(context.Background(), "dune", &book))
	assert.Equal(t, 1, book.ReviewCount)
	assert.InDelta(t, 5.0, book.Rating, 0.001)

	require.NoError(t, svc.Delete(as(t, "alice"), "dune"))
	require.NoError(t, store.Read(context.Background(), "dune", &book))
	assert.Equal(t, 0, book.ReviewCount)
	assert.Zero(t, book.Rating)
}

func TestReviewValidation(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Create(as(t, "alice"), "dune", 0, "")
	assert.Error(t, err)
	_, err = svc.Create(as(t, "alice"), "dune", 6, "")
	assert.Error(t, err)
	_, err = svc.Create(as(t, "alice"), "no-such-book", 4, "")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
