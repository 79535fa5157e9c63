package authz

import (
	"context"

	"github.com/dpup/bookstore/errors"

	"google.golang.org/grpc/codes"
)

// Fetcher creates a type-safe object fetcher from a function. It wraps fetch
// logic with type safety, eliminating manual type assertions.
//
// Example:
//
//	authz.Fetcher(func(ctx context.Context, id string) (*Book, error) {
//	    return svc.bookByID(ctx, id)
//	})
func Fetcher[K comparable, T any](fetch func(context.Context, K) (T, error)) TypedObjectFetcher[K, T] {
	return fetch
}

// MapFetcher creates an object fetcher from a static map. This is commonly
// used in tests, or for small static datasets.
//
// Returns NotFound error if the key doesn't exist in the map.
func MapFetcher[K comparable, T any](m map[K]T) TypedObjectFetcher[K, T] {
	return func(ctx context.Context, key K) (T, error) {
		if val, ok := m[key]; ok {
			return val, nil
		}
		var zero T
		return zero, errors.Codef(codes.NotFound, "object not found for key: %v", key)
	}
}

// ValidatedFetcher wraps an object fetcher with validation logic. The
// validator is called after a successful fetch and can reject the object by
// returning an error. This is useful for enforcing additional constraints
// like soft-deletes or status checks.
func ValidatedFetcher[K comparable, T any](
	fetcher TypedObjectFetcher[K, T],
	validate func(T) error,
) TypedObjectFetcher[K, T] {
	return func(ctx context.Context, key K) (T, error) {
		obj, err := fetcher(ctx, key)
		if err != nil {
			return obj, err
		}
		if err := validate(obj); err != nil {
			var zero T
			return zero, err
		}
		return obj, nil
	}
}

// ComposeFetchers tries multiple fetchers in order until one succeeds.
// Returns the first successful result, or the last error if all fail.
func ComposeFetchers[K comparable, T any](fetchers ...TypedObjectFetcher[K, T]) TypedObjectFetcher[K, T] {
	return func(ctx context.Context, key K) (T, error) {
		var lastErr error
		for _, fetcher := range fetchers {
			obj, err := fetcher(ctx, key)
			if err == nil {
				return obj, nil
			}
			lastErr = err
		}
		var zero T
		return zero, lastErr
	}
}
