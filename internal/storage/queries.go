package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Queries runs statements against either the pool or a transaction.
type Queries struct {
	db sqlx.ExtContext
	sb squirrel.StatementBuilderType
}

func newQueries(db sqlx.ExtContext) *Queries {
	var format squirrel.PlaceholderFormat = squirrel.Question
	if sqlx.BindType(db.DriverName()) == sqlx.DOLLAR {
		format = squirrel.Dollar
	}
	return &Queries{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(format),
	}
}

func (q *Queries) withTx(tx *sqlx.Tx) *Queries {
	return &Queries{db: tx, sb: q.sb}
}

// get scans a single row into dest. sql.ErrNoRows is returned unwrapped so
// callers can translate it into a not-found error.
func (q *Queries) get(ctx context.Context, dest any, b squirrel.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.GetContext(ctx, q.db, dest, query, args...)
}

func (q *Queries) selectAll(ctx context.Context, dest any, b squirrel.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.SelectContext(ctx, q.db, dest, query, args...)
}

// exec runs a statement and returns the number of affected rows.
func (q *Queries) exec(ctx context.Context, b squirrel.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// idStrings renders ids for IN lists.
func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
