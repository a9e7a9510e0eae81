package database

import (
	"fmt"
	"os"
	"path/filepath"

	"custody-go/internal/config"
	"custody-go/internal/custody"
)

// NewDatabaseFromConfig creates a Database implementation based on the database config type.
// The sqlite file is named after the instance id. The in-memory variant is migrated on open.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, instanceID string) (custody.Database, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, instanceID+".db")
		db, err := NewSQLiteDatabase(dbPath, nil, nil)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := db.MigrateUp(); err != nil {
				db.Close()
				return nil, fmt.Errorf("migrating %s: %w", dbPath, err)
			}
		}
		return db, nil
	case "memory":
		db, err := NewSQLiteDatabase(":memory:", nil, nil)
		if err != nil {
			return nil, err
		}
		if err := db.MigrateUp(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating in-memory database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
