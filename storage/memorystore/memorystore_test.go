package memorystore

import (
	"testing"

	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/storage/storagetests"
)

func TestMemoryStore(t *testing.T) {
	storagetests.Run(t, func() storage.Store {
		return New()
	})
}
