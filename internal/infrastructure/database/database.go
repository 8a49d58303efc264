package database

import (
	"fmt"
	"log"

	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-segmenter/internal/domain/entities"
	"github.com/johnquangdev/meeting-segmenter/pkg/config"
)

// Open connects to the configured driver. It returns nil, nil when the
// driver is "none".
func Open(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return NewPostgresDB(cfg)
	case "sqlite":
		return NewSQLiteDB(cfg)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// Migrate brings the schema up to date. Postgres uses the SQL files in the
// migrations directory; SQLite uses GORM AutoMigrate.
func Migrate(db *gorm.DB, cfg *config.Config, direction migrate.MigrationDirection) (int, error) {
	if cfg.Database.Driver == "sqlite" {
		if direction != migrate.Up {
			return 0, fmt.Errorf("sqlite schema only supports migrating up")
		}
		if err := db.AutoMigrate(&entities.SegmentationRun{}); err != nil {
			return 0, fmt.Errorf("failed to auto-migrate sqlite schema: %w", err)
		}
		return 1, nil
	}

	log.Printf("🔄 Applying migrations from %s/ using sql-migrate...", cfg.Database.MigrationsDir)

	migrations := &migrate.FileMigrationSource{
		Dir: cfg.Database.MigrationsDir,
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection during migrate, error: %v", err)
	}

	n, err := migrate.Exec(sqlDB, "postgres", migrations, direction)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migration, error: %v", err)
	}

	log.Printf("✅ Applied %d migrations!\n", n)
	return n, nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("✅ Database connection closed")
	return nil
}
