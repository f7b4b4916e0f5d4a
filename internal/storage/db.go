package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"submissions/internal/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Dialect describes how statements are built for one storage engine.
type Dialect struct {
	Name string
	// Returning is set when generated ids are read back with INSERT ... RETURNING.
	// Otherwise the driver's LastInsertId is used.
	Returning bool
}

var (
	Postgres = Dialect{Name: "postgres", Returning: true}
	SQLite   = Dialect{Name: "sqlite3"}
)

func (d Dialect) Builder() goqu.DialectWrapper {
	return goqu.Dialect(d.Name)
}

// Querier is satisfied by both *sql.DB and *sql.Tx, so every statement can run
// either on its own or inside the caller's transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type DB struct {
	SQL     *sql.DB
	Dialect Dialect

	pool *pgxpool.Pool
}

// Open connects to postgres through a pgx pool (traced into slog) or to sqlite.
func Open(ctx context.Context, driver, dsn string, l *slog.Logger) (*DB, error) {
	switch driver {
	case DriverPostgres:
		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse database url: %w", err)
		}

		cfg.ConnConfig.Tracer = logger.NewPGXTracer(l)

		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}

		return &DB{SQL: stdlib.OpenDBFromPool(pool), Dialect: Postgres, pool: pool}, nil
	case DriverSQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}

		// one connection: ":memory:" databases are per connection and sqlite
		// serializes writers anyway
		db.SetMaxOpenConns(1)

		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}

		return &DB{SQL: db, Dialect: SQLite}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func (d *DB) Close() error {
	err := d.SQL.Close()
	if d.pool != nil {
		d.pool.Close()
	}

	return err
}

// InTx runs fn in a new transaction and commits it when fn returns nil.
func InTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Wrap("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return Wrap("commit transaction", err)
	}

	return nil
}

// InsertReturningId executes ds and returns the id generated for idColumn.
// The read happens on q, so it never observes another session's insert.
func InsertReturningId(ctx context.Context, q Querier, d Dialect, ds *goqu.InsertDataset, idColumn string) (int64, error) {
	if d.Returning {
		sql, params, err := ds.Returning(goqu.C(idColumn)).ToSQL()
		if err != nil {
			return 0, err
		}

		var id int64
		if err := q.QueryRowContext(ctx, sql, params...).Scan(&id); err != nil {
			return 0, err
		}

		return id, nil
	}

	sql, params, err := ds.ToSQL()
	if err != nil {
		return 0, err
	}

	res, err := q.ExecContext(ctx, sql, params...)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}
