// Package storagetests provides common acceptance tests for storage.Store
// implementations.
package storagetests

import (
	"context"
	"testing"

	"github.com/dpup/bookstore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Shelf int

const (
	ShelfFront   Shelf = 1
	ShelfBack    Shelf = 2
	ShelfBargain Shelf = 3
)

type Title struct {
	ID    string
	Name  string
	Shelf Shelf
	Count *int // Ptr fields allow filtering on zero values.
}

func (t Title) PK() string { return t.ID }

type Supplier struct {
	ID   string
	Name string
}

func (s Supplier) PK() string { return s.ID }

type badModel struct {
	ID    string
	Cycle *badModel
}

func (b badModel) PK() string { return b.ID }

func pint(i int) *int { return &i }

// Run exercises a storage.Store implementation against the behaviors the rest
// of the codebase depends on.
//
//nolint:funlen // This is a test helper.
func Run(t *testing.T, newStore func() storage.Store) {
	ctx := context.Background()

	t.Run("CreateReadRoundTrip", func(t *testing.T) {
		store := newStore()
		dune := Title{ID: "1", Name: "Dune", Shelf: ShelfFront}
		pern := Title{ID: "2", Name: "Dragonflight", Shelf: ShelfBack}

		require.NoError(t, store.Create(ctx, dune, pern))

		var got Title
		require.NoError(t, store.Read(ctx, "1", &got))
		assert.Equal(t, dune, got)

		require.NoError(t, store.Read(ctx, "2", &got))
		assert.Equal(t, pern, got)
	})

	t.Run("CreateConflict", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.Create(ctx, Title{ID: "1", Name: "Dune"}))
		err := store.Create(ctx, Title{ID: "1", Name: "Dune, again"})
		require.ErrorIs(t, err, storage.ErrAlreadyExists, "expected conflict error")
	})

	t.Run("ReadMissing", func(t *testing.T) {
		store := newStore()
		var got Title
		require.ErrorIs(t, store.Read(ctx, "nope", &got), storage.ErrNotFound)
	})

	t.Run("ReadNilReceiver", func(t *testing.T) {
		store := newStore()
		var nilTitle *Title
		require.ErrorIs(t, store.Read(ctx, "1", nilTitle), storage.ErrNilModel)
	})

	t.Run("Update", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.Create(ctx, Title{ID: "1", Name: "Dune"}))
		require.NoError(t, store.Update(ctx, Title{ID: "1", Name: "Dune Messiah"}))

		var got Title
		require.NoError(t, store.Read(ctx, "1", &got))
		assert.Equal(t, "Dune Messiah", got.Name)
	})

	t.Run("UpdateNotExists", func(t *testing.T) {
		store := newStore()
		err := store.Update(ctx, Title{ID: "404", Name: "Ghost"})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Upsert", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.Upsert(ctx, Title{ID: "1", Name: "Dune"}))
		require.NoError(t, store.Upsert(ctx, Title{ID: "1", Name: "Dune Messiah"}))

		var got Title
		require.NoError(t, store.Read(ctx, "1", &got))
		assert.Equal(t, "Dune Messiah", got.Name, "upsert should overwrite")
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.Create(ctx, Title{ID: "4", Name: "Hyperion"}))

		exists, err := store.Exists(ctx, "4", &Title{})
		require.NoError(t, err)
		require.True(t, exists)

		require.NoError(t, store.Delete(ctx, Title{ID: "4"}))

		exists, err = store.Exists(ctx, "4", &Title{})
		require.NoError(t, err)
		require.False(t, exists)

		require.ErrorIs(t, store.Delete(ctx, Title{ID: "4"}), storage.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.Create(ctx,
			Title{ID: "1", Name: "Dune", Shelf: ShelfFront, Count: pint(3)},
			Title{ID: "2", Name: "Dragonflight", Shelf: ShelfBack, Count: pint(0)},
			Title{ID: "3", Name: "Hyperion", Shelf: ShelfFront, Count: pint(1)},
		))

		var all []Title
		require.NoError(t, store.List(ctx, &all, Title{}))
		assert.Len(t, all, 3)

		var front []Title
		require.NoError(t, store.List(ctx, &front, Title{Shelf: ShelfFront}))
		assert.Len(t, front, 2)

		// Pointer fields allow filtering on zero values.
		var empty []Title
		require.NoError(t, store.List(ctx, &empty, Title{Count: pint(0)}))
		assert.Len(t, empty, 1)
		assert.Equal(t, "Dragonflight", empty[0].Name)
	})

	t.Run("ListPointerElements", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.Create(ctx,
			Title{ID: "1", Name: "Dune", Shelf: ShelfFront},
			Title{ID: "2", Name: "Dragonflight", Shelf: ShelfBack},
		))

		// Pointer destination slices and pointer filters behave the same
		// as their value counterparts.
		var all []*Title
		require.NoError(t, store.List(ctx, &all, &Title{}))
		assert.Len(t, all, 2)

		var front []*Title
		require.NoError(t, store.List(ctx, &front, Title{Shelf: ShelfFront}))
		require.Len(t, front, 1)
		assert.Equal(t, "Dune", front[0].Name)

		var back []Title
		require.NoError(t, store.List(ctx, &back, &Title{Shelf: ShelfBack}))
		require.Len(t, back, 1)
		assert.Equal(t, "Dragonflight", back[0].Name)

		var wrongType []*Supplier
		require.ErrorIs(t, store.List(ctx, &wrongType, &Title{}), storage.ErrTypeMismatch)
	})

	t.Run("ListTypeChecks", func(t *testing.T) {
		store := newStore()
		var notSlice Title
		require.ErrorIs(t, store.List(ctx, &notSlice, Title{}), storage.ErrSliceRequired)

		var wrongType []Supplier
		require.ErrorIs(t, store.List(ctx, &wrongType, Title{}), storage.ErrTypeMismatch)
	})

	t.Run("TypesAreNamespaced", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.Create(ctx, Title{ID: "1", Name: "Dune"}))
		require.NoError(t, store.Create(ctx, Supplier{ID: "1", Name: "Acme Distribution"}))

		var title Title
		require.NoError(t, store.Read(ctx, "1", &title))
		assert.Equal(t, "Dune", title.Name)

		var supplier Supplier
		require.NoError(t, store.Read(ctx, "1", &supplier))
		assert.Equal(t, "Acme Distribution", supplier.Name)
	})

	t.Run("InvalidModel", func(t *testing.T) {
		store := newStore()
		bad := badModel{ID: "1"}
		bad.Cycle = &bad
		require.ErrorIs(t, store.Create(ctx, bad), storage.ErrInvalidModel)
	})
}
