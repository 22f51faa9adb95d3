// Package leveldb is the kvstore backend on syndtr/goleveldb.
package leveldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/storage/kvstore"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var syncWrite = &opt.WriteOptions{Sync: true}

// DB wraps a LevelDB handle.
type DB struct {
	db *leveldb.DB
}

// Open opens or creates the database at path. cacheSize is the block cache
// capacity in bytes; 0 keeps the library default.
func Open(path string, cacheSize int) (*DB, error) {
	var o *opt.Options
	if cacheSize > 0 {
		o = &opt.Options{BlockCacheCapacity: cacheSize}
	}
	db, err := leveldb.OpenFile(path, o)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb database %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

func (l *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if l.db == nil {
		return nil, kvstore.ErrDBClosed
	}
	data, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, kvstore.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
	return data, nil
}

func (l *DB) Write(ctx context.Context, key, value []byte) error {
	if l.db == nil {
		return kvstore.ErrDBClosed
	}
	return l.db.Put(key, value, syncWrite)
}

func (l *DB) Delete(ctx context.Context, key []byte) error {
	if l.db == nil {
		return kvstore.ErrDBClosed
	}
	return l.db.Delete(key, syncWrite)
}

func (l *DB) Batch(ctx context.Context, ops []kvstore.BatchOperation) error {
	if l.db == nil {
		return kvstore.ErrDBClosed
	}
	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case kvstore.BatchPut:
			batch.Put(op.Key, op.Value)
		case kvstore.BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	if err := l.db.Write(batch, syncWrite); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

func (l *DB) Iterator(ctx context.Context, start, end []byte) (kvstore.Iterator, error) {
	if l.db == nil {
		return nil, kvstore.ErrDBClosed
	}
	return &dbIterator{it: l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)}, nil
}

func (l *DB) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

type dbIterator struct {
	it         iterator.Iterator
	key, value []byte
}

func (i *dbIterator) Next() bool {
	if !i.it.Next() {
		i.key, i.value = nil, nil
		return false
	}
	// The iterator reuses its buffers.
	i.key = append([]byte(nil), i.it.Key()...)
	i.value = append([]byte(nil), i.it.Value()...)
	return true
}

func (i *dbIterator) Key() []byte   { return i.key }
func (i *dbIterator) Value() []byte { return i.value }
func (i *dbIterator) Error() error  { return i.it.Error() }

func (i *dbIterator) Close() error {
	i.it.Release()
	return nil
}
