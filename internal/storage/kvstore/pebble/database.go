// Package pebble is the kvstore backend on cockroachdb/pebble.
package pebble

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/storage/kvstore"
	"github.com/cockroachdb/pebble"
)

type DB struct {
	db    *pebble.DB
	cache *pebble.Cache
}

// Open opens or creates the database at path. cacheSize is the block
// cache size in bytes; 0 keeps pebble's default.
func Open(path string, cacheSize int64) (*DB, error) {
	opts := &pebble.Options{}
	var cache *pebble.Cache
	if cacheSize > 0 {
		cache = pebble.NewCache(cacheSize)
		opts.Cache = cache
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		if cache != nil {
			cache.Unref()
		}
		return nil, fmt.Errorf("failed to open pebble database %s: %w", path, err)
	}
	return &DB{db: db, cache: cache}, nil
}

func (p *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if p.db == nil {
		return nil, kvstore.ErrDBClosed
	}

	val, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, kvstore.ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	// Copy the value out
	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	return valCopy, nil
}

func (p *DB) Write(ctx context.Context, key, value []byte) error {
	if p.db == nil {
		return kvstore.ErrDBClosed
	}
	return p.db.Set(key, value, pebble.Sync)
}

func (p *DB) Delete(ctx context.Context, key []byte) error {
	if p.db == nil {
		return kvstore.ErrDBClosed
	}
	return p.db.Delete(key, pebble.Sync)
}

func (p *DB) Batch(ctx context.Context, ops []kvstore.BatchOperation) error {
	if p.db == nil {
		return kvstore.ErrDBClosed
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		switch op.Type {
		case kvstore.BatchPut:
			if err := batch.Set(op.Key, op.Value, nil); err != nil {
				return err
			}
		case kvstore.BatchDelete:
			if err := batch.Delete(op.Key, nil); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}

	return batch.Commit(pebble.Sync)
}

func (p *DB) Iterator(ctx context.Context, start, end []byte) (kvstore.Iterator, error) {
	if p.db == nil {
		return nil, kvstore.ErrDBClosed
	}

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, err
	}
	return &Iterator{iter: iter}, nil
}

func (p *DB) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	if p.cache != nil {
		p.cache.Unref()
		p.cache = nil
	}
	return err
}

type Iterator struct {
	iter    *pebble.Iterator
	started bool
	key     []byte
	value   []byte
}

func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		it.iter.First()
	} else {
		it.iter.Next()
	}
	if !it.iter.Valid() {
		it.key, it.value = nil, nil
		return false
	}

	key := it.iter.Key()
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)

	val := it.iter.Value()
	valCopy := make([]byte, len(val))
	copy(valCopy, val)

	it.key = keyCopy
	it.value = valCopy
	return true
}

func (it *Iterator) Key() []byte {
	return it.key
}

func (it *Iterator) Value() []byte {
	return it.value
}

func (it *Iterator) Error() error {
	return it.iter.Error()
}

func (it *Iterator) Close() error {
	return it.iter.Close()
}
