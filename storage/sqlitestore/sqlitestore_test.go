package sqlitestore

import (
	"testing"

	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/storage/storagetests"
)

func TestSQLiteStore(t *testing.T) {
	storagetests.Run(t, func() storage.Store {
		return New(":memory:")
	})
}
