package ledgerstore

import (
	"fmt"
	"log/slog"

	"github.com/LeJamon/ripplecalc/internal/storage/kvstore"
	"github.com/LeJamon/ripplecalc/internal/storage/kvstore/compression"
	"github.com/LeJamon/ripplecalc/internal/storage/kvstore/leveldb"
	"github.com/LeJamon/ripplecalc/internal/storage/kvstore/pebble"
)

// Backends accepted by Open.
const (
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

// Config selects and tunes the backing store.
type Config struct {
	Backend     string
	Path        string
	CacheSize   int
	Compression string
	// BlockCacheBytes sizes the backend's own block cache; 0 keeps its
	// default.
	BlockCacheBytes int64
}

// Open opens the store described by cfg.
func Open(cfg Config, log *slog.Logger) (*Store, error) {
	codecName := cfg.Compression
	if codecName == "" {
		codecName = "none"
	}
	codec, err := compression.Get(codecName)
	if err != nil {
		return nil, err
	}

	var db kvstore.DB
	switch cfg.Backend {
	case BackendPebble, "":
		db, err = pebble.Open(cfg.Path, cfg.BlockCacheBytes)
	case BackendLevelDB:
		db, err = leveldb.Open(cfg.Path, int(cfg.BlockCacheBytes))
	case BackendMemory:
		db = kvstore.NewMemoryDB()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	store, err := New(db, codec, cfg.CacheSize, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
