package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/document-assistant/internal/common"
)

type Config struct {
	Driver           string // sqlite | postgres
	Path             string // sqlite file, ":memory:" for an in-memory store
	DSN              string // postgres url
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ConfigFrom maps the application database settings onto Config.
func ConfigFrom(c common.DatabaseConfig) Config {
	return Config{
		Driver:           c.Driver,
		Path:             c.Path,
		DSN:              c.DSN,
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		DialTimeout:      c.DialTimeout,
		StatementTimeout: c.StatementTimeout,
	}
}

// DB is the handle every repository shares. It wraps an ent SQL driver so queries are
// built with ent's dialect-aware builder and run through dialect.ExecQuerier.
type DB struct {
	drv     *entsql.Driver
	dialect string
	pool    *pgxpool.Pool
	logger  *slog.Logger
}

// Open connects to SQLite or Postgres depending on cfg.Driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case common.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case common.DriverSQLite, "":
		return openSQLite(cfg, logger)
	default:
		return nil, common.NewConfigError(fmt.Sprintf("unknown database driver %q", cfg.Driver), nil)
	}
}

func openSQLite(cfg Config, logger *slog.Logger) (*DB, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, common.NewDatabaseConnectionError("create database directory", err)
		}
	}
	logger.Info("connecting to database", "driver", common.DriverSQLite, "path", path)

	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_time_format", "sqlite")
	dsn := "file:" + path + "?" + q.Encode()

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, common.NewDatabaseConnectionError("open sqlite", err)
	}
	// One connection keeps an in-memory database alive and serialises writers.
	sqldb.SetMaxOpenConns(1)
	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		logger.Error("failed to connect to database", "error", err)
		return nil, common.NewDatabaseConnectionError("ping sqlite", err)
	}

	logger.Info("successfully connected to database")
	return NewDB(sqldb, dialect.SQLite, logger), nil
}

// openPostgres creates a pgx pool and wraps it as *sql.DB for the ent driver.
func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", common.DriverPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, common.NewDatabaseConnectionError("parse postgres dsn", err)
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "document-assistant"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, common.NewDatabaseConnectionError("connect postgres", err)
	}

	db := NewDB(stdlib.OpenDBFromPool(pool), dialect.Postgres, logger)
	db.pool = pool
	logger.Info("successfully connected to database")
	return db, nil
}

// NewDB wraps an existing *sql.DB. dialectName is one of entgo.io/ent/dialect's names.
func NewDB(sqldb *sql.DB, dialectName string, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{
		drv:     entsql.OpenDB(dialectName, sqldb),
		dialect: dialectName,
		logger:  logger,
	}
}

func (db *DB) Dialect() string { return db.dialect }

// SQL exposes the underlying handle for migrations.
func (db *DB) SQL() *sql.DB { return db.drv.DB() }

func (db *DB) builder() *entsql.DialectBuilder { return entsql.Dialect(db.dialect) }

// Close closes the database connections gracefully
func (db *DB) Close() error {
	db.logger.Info("closing database connections")
	err := db.drv.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	if err != nil {
		db.logger.Error("failed to close database", "error", err)
		return err
	}
	db.logger.Info("database connections closed")
	return nil
}

// HealthCheck pings the database to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	db.logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.SQL().PingContext(ctx); err != nil {
		return common.NewDatabaseConnectionError("ping", err)
	}
	db.logger.Debug("database ping successful")
	return nil
}
