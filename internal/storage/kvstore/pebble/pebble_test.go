package pebble

import (
	"testing"

	"github.com/LeJamon/ripplecalc/internal/storage/kvstore"
	"github.com/LeJamon/ripplecalc/internal/storage/kvstore/kvstoretest"
	"github.com/stretchr/testify/require"
)

func TestPebbleDB(t *testing.T) {
	kvstoretest.Run(t, func(t *testing.T) kvstore.DB {
		db, err := Open(t.TempDir(), 1<<20)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		return db
	})
}
