package main

import (
	"context"
	"fmt"
	"os"

	"garage-backend/internal/config"
	"garage-backend/internal/logger"
	"garage-backend/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "garage-backend",
	Short: "Appointment scheduling and invoicing API for service garages",
	Long: `garage-backend books service appointments against technicians and vehicles
without double booking, and bills completed appointments into a cent-precise
invoice ledger.

Configuration is read from the environment (or a .env file):
  DATABASE_URL             postgres DSN (required)
  PORT                     HTTP port (default 8080)
  LOG_LEVEL                debug, info, warn, error (default info)
  REDIS_ADDR               enables the catalog cache when set
  LOCK_TIMEOUT             per-transaction lock wait (default 5s)
  DEFAULT_BLOCK_DURATION   window of appointments without an end (default 2h)`,
	Version:      version,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads config and opens the logger and database shared by every command.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := config.InitDB(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func migrate(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("schema migrated", zap.Int("models", len(models.All())))
	return nil
}

func closeDB(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("closing database", zap.Error(err))
	}
}
