package config

import (
	"fmt"
	"net"
	"slices"

	"github.com/LeJamon/ripplecalc/internal/core/paths"
	"github.com/LeJamon/ripplecalc/internal/logging"
	"github.com/LeJamon/ripplecalc/internal/storage/journal"
	"github.com/LeJamon/ripplecalc/internal/storage/kvstore/compression"
	"github.com/LeJamon/ripplecalc/internal/storage/ledgerstore"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Engine.Validate(); err != nil {
		return fmt.Errorf("engine validation failed: %w", err)
	}
	if err := config.Store.Validate(); err != nil {
		return fmt.Errorf("store validation failed: %w", err)
	}
	if err := config.Journal.Validate(); err != nil {
		return fmt.Errorf("journal validation failed: %w", err)
	}
	if config.GRPC.Enabled {
		if err := validateAddress(config.GRPC.Address); err != nil {
			return fmt.Errorf("grpc validation failed: %w", err)
		}
	}
	if config.HTTP.Enabled {
		if err := validateAddress(config.HTTP.Address); err != nil {
			return fmt.Errorf("http validation failed: %w", err)
		}
	}
	if config.GRPC.Enabled && config.HTTP.Enabled && config.GRPC.Address == config.HTTP.Address {
		return fmt.Errorf("grpc and http cannot share address %s", config.GRPC.Address)
	}
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	return nil
}

// Validate checks the engine limits
func (e *EngineConfig) Validate() error {
	for name, value := range map[string]int{
		"max_path_nodes":  e.MaxPathNodes,
		"max_paths":       e.MaxPaths,
		"max_rounds":      e.MaxRounds,
		"max_offer_loops": e.MaxOfferLoops,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}
	if _, ok := paths.ParseTieBreak(e.TieBreak); !ok {
		return fmt.Errorf("invalid tie_break: %s (valid options: quantity, index)", e.TieBreak)
	}
	return nil
}

// Validate checks the store backend and its settings
func (s *StoreConfig) Validate() error {
	backends := []string{ledgerstore.BackendPebble, ledgerstore.BackendLevelDB, ledgerstore.BackendMemory}
	if !slices.Contains(backends, s.Backend) {
		return fmt.Errorf("invalid store backend: %s (valid options: pebble, leveldb, memory)", s.Backend)
	}
	if s.Backend != ledgerstore.BackendMemory && s.Path == "" {
		return fmt.Errorf("store path is required for backend %s", s.Backend)
	}
	if s.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", s.CacheSize)
	}
	if s.BlockCacheMB < 0 {
		return fmt.Errorf("block_cache_mb must be non-negative, got %d", s.BlockCacheMB)
	}
	if s.Compression != "" && !compression.IsAvailable(s.Compression) {
		return fmt.Errorf("invalid compression: %s (valid options: none, lz4)", s.Compression)
	}
	return nil
}

// Validate checks the journal driver
func (j *JournalConfig) Validate() error {
	switch j.Driver {
	case journal.DriverNone, "":
		return nil
	case journal.DriverSQLite, journal.DriverPostgres:
	default:
		return fmt.Errorf("invalid journal driver: %s (valid options: sqlite, postgres, none)", j.Driver)
	}
	if j.DSN == "" {
		return fmt.Errorf("journal dsn is required for driver %s", j.Driver)
	}
	if j.MaxOpenConns < 0 {
		return fmt.Errorf("max_open_conns must be non-negative, got %d", j.MaxOpenConns)
	}
	if j.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %s", j.Timeout)
	}
	return nil
}

// Validate checks the log level and rotation settings
func (l *LogConfig) Validate() error {
	if _, err := logging.ParseLevel(l.Level); err != nil {
		return err
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings must be non-negative")
	}
	return nil
}

func validateAddress(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return nil
}
