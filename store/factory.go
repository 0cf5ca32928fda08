package store

import (
	"fmt"

	"chainlog/config"
	"chainlog/logx"
)

// NewAdapter builds the storage backend selected by configuration. The
// backend varies per deployment; the chain manager only ever sees the
// Adapter interface.
func NewAdapter(cfg config.StorageConfig) (Adapter, error) {
	switch cfg.Backend {
	case "", "memory":
		logx.Info("STORE", "Using in-memory storage adapter")
		return NewMemoryAdapter(), nil
	case "leveldb":
		logx.Info("STORE", "Using LevelDB storage adapter at ", cfg.Dir)
		return NewLevelDBAdapter(cfg.Dir)
	case "bolt":
		logx.Info("STORE", "Using Bolt storage adapter at ", cfg.Dir)
		return NewBoltAdapter(cfg.Dir)
	case "postgres":
		logx.Info("STORE", "Using Postgres storage adapter")
		return NewPostgresAdapter(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
