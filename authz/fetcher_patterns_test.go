package authz_test

import (
	"context"
	"testing"

	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestMapFetcher(t *testing.T) {
	fetcher := authz.MapFetcher(map[string]*testOrder{
		"1": {id: "1", owner: "alice"},
	})

	got, err := fetcher(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.owner)

	_, err = fetcher(context.Background(), "missing")
	assert.Equal(t, codes.NotFound, errors.Code(err))
}

func TestValidatedFetcher(t *testing.T) {
	fetcher := authz.ValidatedFetcher(
		authz.MapFetcher(map[string]*testOrder{
			"ok":  {id: "ok", owner: "alice"},
			"bad": {id: "bad"},
		}),
		func(o *testOrder) error {
			if o.owner == "" {
				return errors.NewC("order has no owner", codes.FailedPrecondition)
			}
			return nil
		},
	)

	_, err := fetcher(context.Background(), "ok")
	assert.NoError(t, err)

	_, err = fetcher(context.Background(), "bad")
	assert.Equal(t, codes.FailedPrecondition, errors.Code(err))
}

func TestComposeFetchers(t *testing.T) {
	cache := authz.MapFetcher(map[string]*testOrder{"1": {id: "1", owner: "cached"}})
	backing := authz.MapFetcher(map[string]*testOrder{
		"1": {id: "1", owner: "stored"},
		"2": {id: "2", owner: "stored"},
	})
	fetcher := authz.ComposeFetchers(cache, backing)

	got, err := fetcher(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "cached", got.owner)

	got, err = fetcher(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "stored", got.owner)

	_, err = fetcher(context.Background(), "3")
	assert.Error(t, err)
}
