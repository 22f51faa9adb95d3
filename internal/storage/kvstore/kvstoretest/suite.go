// Package kvstoretest holds the behavior every kvstore backend must share.
package kvstoretest

import (
	"context"
	"testing"

	"github.com/LeJamon/ripplecalc/internal/storage/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh DB returned by open.
func Run(t *testing.T, open func(t *testing.T) kvstore.DB) {
	ctx := context.Background()

	t.Run("read write delete", func(t *testing.T) {
		db := open(t)
		_, err := db.Read(ctx, []byte("a"))
		assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)

		require.NoError(t, db.Write(ctx, []byte("a"), []byte("1")))
		v, err := db.Read(ctx, []byte("a"))
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), v)

		require.NoError(t, db.Write(ctx, []byte("a"), []byte("2")))
		v, err = db.Read(ctx, []byte("a"))
		require.NoError(t, err)
		assert.Equal(t, []byte("2"), v)

		require.NoError(t, db.Delete(ctx, []byte("a")))
		_, err = db.Read(ctx, []byte("a"))
		assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)
	})

	t.Run("batch", func(t *testing.T) {
		db := open(t)
		require.NoError(t, db.Write(ctx, []byte("gone"), []byte("x")))
		require.NoError(t, db.Batch(ctx, []kvstore.BatchOperation{
			{Type: kvstore.BatchPut, Key: []byte("k1"), Value: []byte("v1")},
			{Type: kvstore.BatchPut, Key: []byte("k2"), Value: []byte("v2")},
			{Type: kvstore.BatchDelete, Key: []byte("gone")},
		}))

		v, err := db.Read(ctx, []byte("k2"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), v)
		_, err = db.Read(ctx, []byte("gone"))
		assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)

		err = db.Batch(ctx, []kvstore.BatchOperation{{Type: kvstore.BatchOpType(9), Key: []byte("k3")}})
		assert.Error(t, err)
	})

	t.Run("iterator range", func(t *testing.T) {
		db := open(t)
		for _, k := range []string{"b", "d", "a", "c", "e"} {
			require.NoError(t, db.Write(ctx, []byte(k), []byte("v"+k)))
		}

		collect := func(start, end []byte) []string {
			it, err := db.Iterator(ctx, start, end)
			require.NoError(t, err)
			defer it.Close()
			var keys []string
			for it.Next() {
				keys = append(keys, string(it.Key()))
				assert.Equal(t, "v"+string(it.Key()), string(it.Value()))
			}
			require.NoError(t, it.Error())
			return keys
		}

		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, collect(nil, nil))
		assert.Equal(t, []string{"b", "c"}, collect([]byte("b"), []byte("d")))
		assert.Equal(t, []string{"c", "d", "e"}, collect([]byte("bb"), nil))
		assert.Empty(t, collect([]byte("x"), nil))
	})

	t.Run("closed", func(t *testing.T) {
		db := open(t)
		require.NoError(t, db.Close())
		_, err := db.Read(ctx, []byte("a"))
		assert.ErrorIs(t, err, kvstore.ErrDBClosed)
		assert.ErrorIs(t, db.Write(ctx, []byte("a"), nil), kvstore.ErrDBClosed)
	})
}
