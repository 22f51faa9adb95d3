package kvstore

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"
)

type memItem struct {
	key, value []byte
}

func (i *memItem) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(*memItem).key) < 0
}

// MemoryDB is an ordered in-memory DB. It is used by tests and by the
// memory store backend.
type MemoryDB struct {
	mu     sync.RWMutex
	tree   *btree.BTree
	closed bool
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{tree: btree.New(32)}
}

func (m *MemoryDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrDBClosed
	}
	item := m.tree.Get(&memItem{key: key})
	if item == nil {
		return nil, ErrKeyNotFound
	}
	return clone(item.(*memItem).value), nil
}

func (m *MemoryDB) Write(ctx context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrDBClosed
	}
	m.tree.ReplaceOrInsert(&memItem{key: clone(key), value: clone(value)})
	return nil
}

func (m *MemoryDB) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrDBClosed
	}
	m.tree.Delete(&memItem{key: key})
	return nil
}

func (m *MemoryDB) Batch(ctx context.Context, ops []BatchOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrDBClosed
	}
	for _, op := range ops {
		if op.Type != BatchPut && op.Type != BatchDelete {
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	for _, op := range ops {
		if op.Type == BatchPut {
			m.tree.ReplaceOrInsert(&memItem{key: clone(op.Key), value: clone(op.Value)})
		} else {
			m.tree.Delete(&memItem{key: op.Key})
		}
	}
	return nil
}

// Iterator snapshots the range so writes during iteration are not seen.
func (m *MemoryDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrDBClosed
	}

	var items []*memItem
	collect := func(i btree.Item) bool {
		it := i.(*memItem)
		if end != nil && bytes.Compare(it.key, end) >= 0 {
			return false
		}
		items = append(items, &memItem{key: clone(it.key), value: clone(it.value)})
		return true
	}
	if start == nil {
		m.tree.Ascend(collect)
	} else {
		m.tree.AscendGreaterOrEqual(&memItem{key: start}, collect)
	}
	return &memIterator{items: items, pos: -1}, nil
}

func (m *MemoryDB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type memIterator struct {
	items []*memItem
	pos   int
}

func (it *memIterator) Next() bool {
	if it.pos+1 >= len(it.items) {
		it.pos = len(it.items)
		return false
	}
	it.pos++
	return true
}

func (it *memIterator) Key() []byte {
	if it.pos < 0 || it.pos >= len(it.items) {
		return nil
	}
	return it.items[it.pos].key
}

func (it *memIterator) Value() []byte {
	if it.pos < 0 || it.pos >= len(it.items) {
		return nil
	}
	return it.items[it.pos].value
}

func (it *memIterator) Error() error { return nil }
func (it *memIterator) Close() error { return nil }
