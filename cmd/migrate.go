package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/event-scheduler/db"
	"github.com/frahmantamala/event-scheduler/internal"
	"github.com/frahmantamala/event-scheduler/internal/database"
	"github.com/frahmantamala/event-scheduler/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "apply the embedded SQL migrations (postgres) or auto-migrate (sqlite)",
	}
	migrateRollback bool
	migrateStatus   bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration")
	migrateCmd.Flags().BoolVarP(&migrateStatus, "status", "s", false, "print migration status and exit")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	// the SQL files target postgres; sqlite stores are derived from the models
	if cfg.Database.Driver == internal.DriverSQLite {
		gdb, err := database.Open(cfg.Database, lg)
		if err != nil {
			return err
		}
		defer func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()
		if err := database.AutoMigrate(gdb); err != nil {
			return err
		}
		lg.Info("sqlite schema migrated")
		return nil
	}

	conn, err := goose.OpenDBWithDriver("pgx", cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer conn.Close()

	goose.SetBaseFS(db.Migrations)
	goose.SetTableName("schema_migrations")

	switch {
	case migrateStatus:
		return goose.StatusContext(ctx, conn, db.MigrationsDir)
	case migrateRollback:
		if err := goose.DownContext(ctx, conn, db.MigrationsDir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
	default:
		if err := goose.UpContext(ctx, conn, db.MigrationsDir); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
	}

	lg.Info("migrations applied", "rollback", migrateRollback)
	return nil
}
