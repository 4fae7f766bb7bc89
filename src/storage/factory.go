package storage

import (
	"fmt"

	"market-collector/src/interfaces"
	"market-collector/src/logger"
	"market-collector/src/models"
)

// NewStore builds the store selected by storage.db_type. Initialize must be
// called before use.
func NewStore(cfg *models.MConfig, log *logger.Logger) (interfaces.IStore, error) {
	switch cfg.Storage.DBType {
	case "sqlite", "":
		return NewSQLiteStore(cfg, log), nil
	case "postgres":
		pg, err := NewPostgresStore(cfg, log)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", cfg.Storage.DBType)
}
