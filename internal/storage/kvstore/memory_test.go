package kvstore_test

import (
	"testing"

	"github.com/LeJamon/ripplecalc/internal/storage/kvstore"
	"github.com/LeJamon/ripplecalc/internal/storage/kvstore/kvstoretest"
)

func TestMemoryDB(t *testing.T) {
	kvstoretest.Run(t, func(t *testing.T) kvstore.DB {
		return kvstore.NewMemoryDB()
	})
}
