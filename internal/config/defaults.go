package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets every key so that environment overrides are seen by
// Unmarshal
func setDefaults(v *viper.Viper) {
	// Engine limits
	v.SetDefault("engine.max_path_nodes", 16)
	v.SetDefault("engine.max_paths", 6)
	v.SetDefault("engine.max_rounds", 2000)
	v.SetDefault("engine.max_offer_loops", 1000)
	v.SetDefault("engine.tie_break", "quantity")
	v.SetDefault("engine.close_time", 0)

	// Ledger store
	v.SetDefault("store.backend", "pebble")
	v.SetDefault("store.path", "ripplecalc-data/ledger")
	v.SetDefault("store.cache_size", 4096)
	v.SetDefault("store.compression", "lz4")
	v.SetDefault("store.block_cache_mb", 0) // backend default

	// Settlement journal
	v.SetDefault("journal.driver", "none")
	v.SetDefault("journal.dsn", "")
	v.SetDefault("journal.max_open_conns", 4)
	v.SetDefault("journal.timeout", 10*time.Second)

	// Network surfaces used by serve
	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.address", "127.0.0.1:50551")
	v.SetDefault("http.enabled", true)
	v.SetDefault("http.address", "127.0.0.1:8551")

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}
