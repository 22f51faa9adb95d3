package view

import (
	"sync"

	"github.com/google/btree"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
)

const btreeDegree = 32

type stateItem struct {
	key  [32]byte
	data []byte
}

func (i *stateItem) Less(than btree.Item) bool {
	return keyLess(i.key, than.(*stateItem).key)
}

// MemoryLedger is an ordered in-memory ledger state.
type MemoryLedger struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{tree: btree.New(btreeDegree)}
}

func (m *MemoryLedger) Read(k keylet.Keylet) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item := m.tree.Get(&stateItem{key: k.Key})
	if item == nil {
		return nil, nil
	}
	return cloneBytes(item.(*stateItem).data), nil
}

func (m *MemoryLedger) Exists(k keylet.Keylet) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Has(&stateItem{key: k.Key}), nil
}

func (m *MemoryLedger) Succ(after, before [32]byte) ([32]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found [32]byte
	ok := false
	m.tree.AscendRange(&stateItem{key: after}, &stateItem{key: before}, func(i btree.Item) bool {
		key := i.(*stateItem).key
		if key == after {
			return true
		}
		found, ok = key, true
		return false
	})
	return found, ok, nil
}

func (m *MemoryLedger) Insert(k keylet.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tree.Has(&stateItem{key: k.Key}) {
		return ErrEntryExists
	}
	m.tree.ReplaceOrInsert(&stateItem{key: k.Key, data: cloneBytes(data)})
	return nil
}

func (m *MemoryLedger) Update(k keylet.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.tree.Has(&stateItem{key: k.Key}) {
		return ErrEntryNotFound
	}
	m.tree.ReplaceOrInsert(&stateItem{key: k.Key, data: cloneBytes(data)})
	return nil
}

func (m *MemoryLedger) Erase(k keylet.Keylet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tree.Delete(&stateItem{key: k.Key}) == nil {
		return ErrEntryNotFound
	}
	return nil
}

// ForEach visits entries in key order until fn returns false.
func (m *MemoryLedger) ForEach(fn func(key [32]byte, data []byte) bool) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.tree.Ascend(func(i btree.Item) bool {
		item := i.(*stateItem)
		return fn(item.key, item.data)
	})
	return nil
}

// Len returns the number of entries.
func (m *MemoryLedger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Len()
}
