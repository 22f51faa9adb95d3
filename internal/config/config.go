package config

import (
	"time"

	"github.com/LeJamon/ripplecalc/internal/core/paths"
	"github.com/LeJamon/ripplecalc/internal/logging"
	"github.com/LeJamon/ripplecalc/internal/storage/journal"
	"github.com/LeJamon/ripplecalc/internal/storage/ledgerstore"
)

// Config represents the complete ripplecalc configuration
type Config struct {
	Engine  EngineConfig  `toml:"engine" mapstructure:"engine"`
	Store   StoreConfig   `toml:"store" mapstructure:"store"`
	Journal JournalConfig `toml:"journal" mapstructure:"journal"`
	GRPC    GRPCConfig    `toml:"grpc" mapstructure:"grpc"`
	HTTP    HTTPConfig    `toml:"http" mapstructure:"http"`
	Log     LogConfig     `toml:"log" mapstructure:"log"`

	configPath string
}

// EngineConfig represents the [engine] section: payment computation limits
type EngineConfig struct {
	MaxPathNodes  int    `toml:"max_path_nodes" mapstructure:"max_path_nodes"`
	MaxPaths      int    `toml:"max_paths" mapstructure:"max_paths"`
	MaxRounds     int    `toml:"max_rounds" mapstructure:"max_rounds"`
	MaxOfferLoops int    `toml:"max_offer_loops" mapstructure:"max_offer_loops"`
	TieBreak      string `toml:"tie_break" mapstructure:"tie_break"` // quantity or index
	CloseTime     uint32 `toml:"close_time" mapstructure:"close_time"`
}

// StoreConfig represents the [store] section
type StoreConfig struct {
	Backend      string `toml:"backend" mapstructure:"backend"`
	Path         string `toml:"path" mapstructure:"path"`
	CacheSize    int    `toml:"cache_size" mapstructure:"cache_size"`
	Compression  string `toml:"compression" mapstructure:"compression"`
	BlockCacheMB int    `toml:"block_cache_mb" mapstructure:"block_cache_mb"`
}

// JournalConfig represents the [journal] section
type JournalConfig struct {
	Driver       string        `toml:"driver" mapstructure:"driver"`
	DSN          string        `toml:"dsn" mapstructure:"dsn"`
	MaxOpenConns int           `toml:"max_open_conns" mapstructure:"max_open_conns"`
	Timeout      time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// GRPCConfig represents the [grpc] section
type GRPCConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Address string `toml:"address" mapstructure:"address"`
}

// HTTPConfig represents the [http] section serving /metrics, /feed and
// /health
type HTTPConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Address string `toml:"address" mapstructure:"address"`
}

// LogConfig represents the [log] section
type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	File       string `toml:"file" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
}

// GetConfigPath returns the path to the loaded config file, empty when
// only defaults and the environment were used
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Options converts the section into engine options.
func (e EngineConfig) Options() paths.Options {
	tb, _ := paths.ParseTieBreak(e.TieBreak)
	return paths.Options{
		MaxPathNodes:  e.MaxPathNodes,
		MaxPaths:      e.MaxPaths,
		MaxRounds:     e.MaxRounds,
		MaxOfferLoops: e.MaxOfferLoops,
		TieBreak:      tb,
		CloseTime:     e.CloseTime,
	}
}

// Ledgerstore converts the section into a ledger store configuration.
func (s StoreConfig) Ledgerstore() ledgerstore.Config {
	return ledgerstore.Config{
		Backend:         s.Backend,
		Path:            s.Path,
		CacheSize:       s.CacheSize,
		Compression:     s.Compression,
		BlockCacheBytes: int64(s.BlockCacheMB) << 20,
	}
}

// Journal converts the section into a journal configuration.
func (j JournalConfig) Journal() journal.Config {
	return journal.Config{
		Driver:       j.Driver,
		DSN:          j.DSN,
		MaxOpenConns: j.MaxOpenConns,
		Timeout:      j.Timeout,
	}
}

// Logging converts the section into logging options.
func (l LogConfig) Logging() logging.Options {
	return logging.Options{
		Level:      l.Level,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
	}
}
