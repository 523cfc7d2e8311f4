package store

import (
	"fmt"

	"timecapsule/internal/capsule"
	"timecapsule/internal/config"
)

// NewStoreFromConfig creates a Store implementation based on the storage
// config type. An empty type defaults to filesystem.
func NewStoreFromConfig(cfg config.StorageConfig, idgen capsule.IDGenerator, logger capsule.Logger) (capsule.Store, error) {
	switch cfg.Type {
	case "", "filesystem":
		return NewFilesystemStore(cfg.Root, idgen, logger)
	case "sqlite":
		return NewSQLiteStore(cfg.DBPath, idgen, logger)
	case "s3":
		return NewS3Store(cfg, idgen, logger)
	case "memory":
		return NewMemoryStore(idgen), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
