package database

import (
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/meeting-segmenter/pkg/config"
)

// NewPostgresDB opens the PostgreSQL run audit database
func NewPostgresDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()

	// The database may still be starting next to the service.
	var db *gorm.DB
	open := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), gormConfig(cfg))
		return err
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(open, bo); err != nil {
		return nil, fmt.Errorf("failed to connect to database at %s:%s: %w", cfg.Database.Host, cfg.Database.Port, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Printf("✅ Run audit database connected (%s/%s)", cfg.Database.Host, cfg.Database.Name)

	return db, nil
}

func gormConfig(cfg *config.Config) *gorm.Config {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.Server.Environment == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}
	return &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}
