package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/repository"
	"github.com/joseph-ayodele/document-assistant/internal/repository/migrations"
)

// ConnectDB opens the configured store. Postgres settings come from DB_URL, SQLite from DB_PATH.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repository.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	target := cfg.Path
	if cfg.Driver == common.DriverPostgres {
		target = "DB_URL"
	}
	logger.Info("db.connect.start", "driver", cfg.Driver, "target", target)

	db, err := repository.Open(ctx, repository.ConfigFrom(cfg), logger)
	if err != nil {
		logger.Error("db.connect.failed", "driver", cfg.Driver, "error", err)
		return nil, err
	}
	logger.Info("db.connect.ok", "dialect", db.Dialect())
	return db, nil
}

// PingDB fails when the store does not answer within timeout.
func PingDB(ctx context.Context, db *repository.DB, logger *slog.Logger, timeout time.Duration) error {
	start := time.Now()
	if err := db.HealthCheck(ctx, timeout); err != nil {
		logger.Error("db.ping.failed", "error", err)
		return err
	}
	logger.Debug("db.ping.ok", "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// CheckSchema reports whether the applied migrations match the ones compiled in.
func CheckSchema(db *repository.DB, logger *slog.Logger) error {
	if err := migrations.CheckDBMigrationStatus(db.SQL(), db.Dialect()); err != nil {
		logger.Warn("db.schema.outdated", "error", err)
		return common.NewDatabaseError("schema check", err)
	}
	return nil
}

func CloseDB(db *repository.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("db.close.failed", "error", err)
		return
	}
	logger.Info("db.closed")
}
