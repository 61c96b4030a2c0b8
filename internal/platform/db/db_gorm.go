// Package db opens the gorm connection used by the candle store and the alert audit log.
package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	alertadapters "psx_backend/internal/feature/alert/adapters"
	marketadapters "psx_backend/internal/feature/market/adapters"
	"psx_backend/internal/platform/config"
)

// ConnectTimeout bounds how long Open keeps retrying a database that is still starting.
const ConnectTimeout = 60 * time.Second

// retryInterval is the pause between connection attempts.
var retryInterval = 3 * time.Second

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// Open connects using the configured driver and runs migrations when enabled.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	opener, err := openerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(cfg.DSN, ConnectTimeout, opener)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func openerFor(driver string) (Opener, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	switch driver {
	case config.DriverSQLite:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(sqlite.Open(dsn), gcfg) }, nil
	case config.DriverPostgres:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(postgres.Open(dsn), gcfg) }, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// ConnectWithRetry calls open until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %v: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Migrate creates or updates the candle and alert tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&marketadapters.CandleModel{},
		&alertadapters.AlertModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
