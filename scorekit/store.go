package scorekit

import (
	"fmt"
	"io"
	"log/slog"

	"scorekit/adapters/jsonfile"
	"scorekit/adapters/memory"
	"scorekit/adapters/offline"
	"scorekit/adapters/redis"
	"scorekit/adapters/sqlx"
	"scorekit/config"
	"scorekit/engine"
)

// OpenStore creates the ranking store selected by cfg.Adapter. No connection is made;
// the store stays unavailable until Initialize.
func OpenStore(cfg config.StorageConfig, logger *slog.Logger) (engine.RankingStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Adapter {
	case config.AdapterRedis:
		return redis.New(cfg.Redis, redis.WithLogger(logger)), nil
	case config.AdapterSQL:
		store, err := sqlx.New(cfg.SQL, sqlx.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.AdapterFile:
		return jsonfile.New(cfg.File.Path, jsonfile.WithLogger(logger)), nil
	case config.AdapterMemory:
		return memory.New(), nil
	case config.AdapterOffline:
		return offline.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Adapter)
	}
}

// CloseStore releases the store's connections, if it holds any.
func CloseStore(store engine.RankingStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
