package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-segmenter/pkg/config"
)

// NewSQLiteDB opens the local SQLite run database
func NewSQLiteDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.GetDatabaseDSN()), gormConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite allows a single writer.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	log.Printf("✅ SQLite database opened at %s", cfg.Database.SQLitePath)
	return db, nil
}
