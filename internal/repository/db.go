package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB is an ent SQL driver over either a pgx pool or a SQLite file.
type DB struct {
	drv  *entsql.Driver
	pool *pgxpool.Pool
	log  *slog.Logger
}

// Open connects to postgres:// (pgx pool) or sqlite:<path> DSNs.
// "sqlite::memory:" gives a private in-memory database.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch {
	case strings.HasPrefix(cfg.DSN, "postgres://"), strings.HasPrefix(cfg.DSN, "postgresql://"):
		return openPostgres(ctx, cfg, logger)
	case strings.HasPrefix(cfg.DSN, "sqlite:"):
		return openSQLite(ctx, strings.TrimPrefix(cfg.DSN, "sqlite:"), logger)
	}
	return nil, fmt.Errorf("unsupported database dsn %q", redact(cfg.DSN))
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "dsn", redact(cfg.DSN))
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "survey-extractor"
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
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database", "dialect", dialect.Postgres)
	return &DB{drv: entsql.OpenDB(dialect.Postgres, db), pool: pool, log: logger}, nil
}

func openSQLite(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	memory := path == ":memory:" || path == ""
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if memory {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// An in-memory database lives and dies with its connection; SQLite
	// also serializes writers, so one connection is enough either way.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("opened sqlite database", "path", path, "memory", memory)
	return &DB{drv: entsql.OpenDB(dialect.SQLite, db), log: logger}, nil
}

// Dialect is the ent dialect name used to build statements.
func (d *DB) Dialect() string { return d.drv.Dialect() }

func (d *DB) builder() *entsql.DialectBuilder { return entsql.Dialect(d.drv.Dialect()) }

// Close closes the database connections gracefully
func (d *DB) Close() {
	d.log.Info("closing database connections")
	if err := d.drv.Close(); err != nil {
		d.log.Error("failed to close database", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
	d.log.Info("database connections closed")
}

// HealthCheck pings the database.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := d.drv.DB().PingContext(ctx); err != nil {
		d.log.Warn("database ping failed", "error", err)
		return err
	}
	d.log.Debug("database ping successful")
	return nil
}

// inTx runs fn in a transaction, rolling back on error.
func (d *DB) inTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := d.drv.Tx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			d.log.Error("transaction rollback failed", "error", rerr)
		}
		return err
	}
	return tx.Commit()
}

func redact(dsn string) string {
	at := strings.LastIndexByte(dsn, '@')
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	return dsn[:scheme+3] + "***" + dsn[at:]
}
