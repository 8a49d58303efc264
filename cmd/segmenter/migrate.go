package main

import (
	"fmt"
	"log"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/johnquangdev/meeting-segmenter/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-segmenter/pkg/config"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the run audit schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := migrate.Up
			if len(args) == 1 && args[0] == "down" {
				direction = migrate.Down
			}
			return runMigrate(direction)
		},
	}
}

func runMigrate(direction migrate.MigrationDirection) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if db == nil {
		return fmt.Errorf("DB_DRIVER is none, nothing to migrate")
	}
	defer database.CloseDB(db)

	log.Println("✅ Database connected successfully")

	n, err := database.Migrate(db, cfg, direction)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Printf("✅ Successfully applied %d migration(s)!\n", n)
	return nil
}
