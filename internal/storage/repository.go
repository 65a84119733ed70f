// Package storage persists users, categories and expenses through sqlx.
// SQLite is the default backend; PostgreSQL is selected with the postgres driver.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Repository owns the connection pool. Its embedded Queries run outside any
// transaction; InTx hands out a transaction-bound Queries.
type Repository struct {
	*Queries
	db *sqlx.DB
}

// Open connects to the database, applies migrations and returns a Repository.
func Open(ctx context.Context, driverName, dsn string) (*Repository, error) {
	sqlDriver, openDSN, err := driverDSN(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if driverName == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sqlx.Open(sqlDriver, openDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName, err)
	}
	if driverName == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(driverName, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return New(db), nil
}

// New wraps an already opened database. The placeholder style follows the
// driver name.
func New(db *sqlx.DB) *Repository {
	return &Repository{
		Queries: newQueries(db),
		db:      db,
	}
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// InTx runs fn inside a transaction. The transaction commits when fn returns
// nil and rolls back otherwise, leaving no partial writes behind.
func (r *Repository) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(r.Queries.withTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// driverDSN maps a configured driver to the database/sql driver name and the
// connection string it expects.
func driverDSN(driverName, dsn string) (string, string, error) {
	switch driverName {
	case DriverSQLite:
		if dsn == "" {
			return "", "", fmt.Errorf("sqlite database path is empty")
		}
		return "sqlite", sqliteDSN(dsn), nil
	case DriverPostgres:
		if dsn == "" {
			return "", "", fmt.Errorf("postgres connection string is empty")
		}
		return "postgres", dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driverName)
	}
}

// sqliteDSN enables foreign keys and stores timestamps in a sortable text form.
func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}
