package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LeJamon/ripplecalc/internal/core/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ripplecalc.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 16, config.Engine.MaxPathNodes)
	assert.Equal(t, 6, config.Engine.MaxPaths)
	assert.Equal(t, "pebble", config.Store.Backend)
	assert.Equal(t, "lz4", config.Store.Compression)
	assert.Equal(t, "none", config.Journal.Driver)
	assert.Equal(t, 10*time.Second, config.Journal.Timeout)
	assert.Equal(t, "info", config.Log.Level)
	assert.Empty(t, config.GetConfigPath())

	opts := config.Engine.Options()
	assert.Equal(t, paths.DefaultOptions().MaxRounds, opts.MaxRounds)
	assert.Equal(t, paths.TieBreakQuantity, opts.TieBreak)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
[engine]
max_rounds = 50
tie_break = "index"
close_time = 1000

[store]
backend = "leveldb"
path = "/tmp/ripplecalc/ledger"
block_cache_mb = 8

[journal]
driver = "sqlite"
dsn = "/tmp/ripplecalc/journal.db"
timeout = "2s"

[grpc]
address = "0.0.0.0:9000"

[log]
level = "debug"
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.GetConfigPath())

	opts := config.Engine.Options()
	assert.Equal(t, 50, opts.MaxRounds)
	assert.Equal(t, paths.TieBreakIndex, opts.TieBreak)
	assert.Equal(t, uint32(1000), opts.CloseTime)
	// Unset keys keep their defaults.
	assert.Equal(t, 16, opts.MaxPathNodes)

	store := config.Store.Ledgerstore()
	assert.Equal(t, "leveldb", store.Backend)
	assert.Equal(t, int64(8<<20), store.BlockCacheBytes)

	j := config.Journal.Journal()
	assert.Equal(t, "sqlite", j.Driver)
	assert.Equal(t, 2*time.Second, j.Timeout)

	assert.Equal(t, "0.0.0.0:9000", config.GRPC.Address)
	assert.Equal(t, "debug", config.Log.Logging().Level)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("RIPPLECALC_STORE_BACKEND", "memory")
	t.Setenv("RIPPLECALC_ENGINE_MAX_PATHS", "3")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "memory", config.Store.Backend)
	assert.Equal(t, 3, config.Engine.MaxPaths)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		config, err := LoadConfig("")
		require.NoError(t, err)
		return config
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rounds", func(c *Config) { c.Engine.MaxRounds = 0 }},
		{"bad tie break", func(c *Config) { c.Engine.TieBreak = "random" }},
		{"bad backend", func(c *Config) { c.Store.Backend = "rocksdb" }},
		{"missing store path", func(c *Config) { c.Store.Path = "" }},
		{"bad compression", func(c *Config) { c.Store.Compression = "zstd" }},
		{"bad journal driver", func(c *Config) { c.Journal.Driver = "mysql" }},
		{"missing dsn", func(c *Config) { c.Journal.Driver = "postgres" }},
		{"bad grpc address", func(c *Config) { c.GRPC.Address = "nowhere" }},
		{"shared address", func(c *Config) { c.HTTP.Address = c.GRPC.Address }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			assert.Error(t, ValidateConfig(config))
		})
	}

	config := valid()
	config.Store.Backend = "memory"
	config.Store.Path = ""
	config.GRPC.Enabled = false
	config.GRPC.Address = "nowhere"
	assert.NoError(t, ValidateConfig(config))
}
