// Package ledgerstore persists ledger state in a kvstore backend and serves
// it to the payment engine as a view.
package ledgerstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/storage/kvstore"
	"github.com/LeJamon/ripplecalc/internal/storage/kvstore/compression"
	lru "github.com/hashicorp/golang-lru/v2"
)

// statePrefix namespaces ledger entries inside the key-value store.
const statePrefix byte = 's'

// DefaultCacheSize is the number of entries kept decoded in memory.
const DefaultCacheSize = 4096

var ErrBatchOpen = errors.New("a batch is already open")

type pendingOp struct {
	data    []byte
	deleted bool
}

// Store is a view.View over a kvstore.DB. Writes go straight to the
// database unless an Atomic call is in progress, in which case they are
// buffered and written as one batch.
type Store struct {
	mu      sync.RWMutex
	db      kvstore.DB
	codec   compression.Compressor
	cache   *lru.Cache[[32]byte, []byte]
	pending map[[32]byte]pendingOp
	log     *slog.Logger
}

// New wraps db. A nil codec stores values uncompressed.
func New(db kvstore.DB, codec compression.Compressor, cacheSize int, log *slog.Logger) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[[32]byte, []byte](cacheSize)
	if err != nil {
		return nil, err
	}
	if codec == nil {
		codec = compression.NoCompressor{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, codec: codec, cache: cache, log: log}, nil
}

func dbKey(key [32]byte) []byte {
	out := make([]byte, 0, 33)
	out = append(out, statePrefix)
	return append(out, key[:]...)
}

func (s *Store) Read(k keylet.Keylet) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(k.Key)
}

func (s *Store) read(key [32]byte) ([]byte, error) {
	if op, ok := s.pending[key]; ok {
		if op.deleted {
			return nil, nil
		}
		return bytes.Clone(op.data), nil
	}
	if data, ok := s.cache.Get(key); ok {
		return bytes.Clone(data), nil
	}

	frame, err := s.db.Read(context.Background(), dbKey(key))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %x: %w", key[:8], err)
	}
	data, err := compression.Decode(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to decode entry %x: %w", key[:8], err)
	}
	s.cache.Add(key, data)
	return bytes.Clone(data), nil
}

func (s *Store) Exists(k keylet.Keylet) (bool, error) {
	data, err := s.Read(k)
	return data != nil, err
}

// Succ returns the smallest stored key strictly between after and before.
func (s *Store) Succ(after, before [32]byte) ([32]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best [32]byte
	found := false
	for key, op := range s.pending {
		if op.deleted || !between(key, after, before) {
			continue
		}
		if !found || bytes.Compare(key[:], best[:]) < 0 {
			best, found = key, true
		}
	}

	it, err := s.db.Iterator(context.Background(), dbKey(after), dbKey(before))
	if err != nil {
		return best, found, err
	}
	defer it.Close()
	for it.Next() {
		var key [32]byte
		copy(key[:], it.Key()[1:])
		if key == after {
			continue
		}
		if op, ok := s.pending[key]; ok && op.deleted {
			continue
		}
		if !found || bytes.Compare(key[:], best[:]) < 0 {
			best, found = key, true
		}
		break
	}
	return best, found, it.Error()
}

func between(key, after, before [32]byte) bool {
	return bytes.Compare(key[:], after[:]) > 0 && bytes.Compare(key[:], before[:]) < 0
}

func (s *Store) Insert(k keylet.Keylet, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.read(k.Key)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %x", view.ErrEntryExists, k.Key[:8])
	}
	return s.put(k.Key, data)
}

func (s *Store) Update(k keylet.Keylet, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.read(k.Key)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %x", view.ErrEntryNotFound, k.Key[:8])
	}
	return s.put(k.Key, data)
}

func (s *Store) Erase(k keylet.Keylet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.read(k.Key)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %x", view.ErrEntryNotFound, k.Key[:8])
	}
	s.cache.Remove(k.Key)
	if s.pending != nil {
		s.pending[k.Key] = pendingOp{deleted: true}
		return nil
	}
	return s.db.Delete(context.Background(), dbKey(k.Key))
}

func (s *Store) put(key [32]byte, data []byte) error {
	data = bytes.Clone(data)
	if s.pending != nil {
		s.pending[key] = pendingOp{data: data}
		return nil
	}
	frame, err := compression.Encode(s.codec, data)
	if err != nil {
		return err
	}
	if err := s.db.Write(context.Background(), dbKey(key), frame); err != nil {
		return fmt.Errorf("failed to write entry %x: %w", key[:8], err)
	}
	s.cache.Add(key, data)
	return nil
}

// Atomic runs fn with writes buffered and commits them as one batch when fn
// succeeds. On failure nothing reaches the database.
func (s *Store) Atomic(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	if s.pending != nil {
		s.mu.Unlock()
		return ErrBatchOpen
	}
	s.pending = make(map[[32]byte]pendingOp)
	s.mu.Unlock()

	fnErr := fn()

	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.pending
	s.pending = nil
	if fnErr != nil {
		return fnErr
	}

	keys := make([][32]byte, 0, len(pending))
	for key := range pending {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })

	ops := make([]kvstore.BatchOperation, 0, len(keys))
	for _, key := range keys {
		op := pending[key]
		if op.deleted {
			ops = append(ops, kvstore.BatchOperation{Type: kvstore.BatchDelete, Key: dbKey(key)})
			continue
		}
		frame, err := compression.Encode(s.codec, op.data)
		if err != nil {
			return err
		}
		ops = append(ops, kvstore.BatchOperation{Type: kvstore.BatchPut, Key: dbKey(key), Value: frame})
	}
	if err := s.db.Batch(ctx, ops); err != nil {
		s.cache.Purge()
		return fmt.Errorf("failed to commit %d ledger changes: %w", len(ops), err)
	}
	for _, key := range keys {
		if op := pending[key]; !op.deleted {
			s.cache.Add(key, op.data)
		}
	}
	s.log.Debug("ledger batch committed", "entries", len(ops))
	return nil
}

// ForEach walks every stored entry in key order. Writes buffered by an
// open Atomic call are not visited.
func (s *Store) ForEach(fn func(key [32]byte, data []byte) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, err := s.db.Iterator(context.Background(), []byte{statePrefix}, []byte{statePrefix + 1})
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Next() {
		var key [32]byte
		copy(key[:], it.Key()[1:])
		data, err := compression.Decode(it.Value())
		if err != nil {
			return fmt.Errorf("failed to decode entry %x: %w", key[:8], err)
		}
		if !fn(key, data) {
			break
		}
	}
	return it.Error()
}

func (s *Store) Close() error {
	return s.db.Close()
}
