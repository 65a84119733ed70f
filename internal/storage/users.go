package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expenses/internal/core"
)

const msgUsernameTaken = "A user with that username already exists."

type userRow struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toCore() core.User {
	return core.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

var userColumns = []string{"id", "username", "password_hash", "created_at"}

// CreateUser inserts u. A duplicate username is reported as a validation error.
func (q *Queries) CreateUser(ctx context.Context, u core.User) error {
	_, err := q.exec(ctx, q.sb.Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Username, u.PasswordHash, u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return core.NewValidationError("username", msgUsernameTaken)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (core.User, error) {
	var row userRow
	err := q.get(ctx, &row, q.sb.Select(userColumns...).From("users").Where("id = ?", id))
	if isNoRows(err) {
		return core.User{}, core.NewNotFound("User", id.String())
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return row.toCore(), nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var row userRow
	err := q.get(ctx, &row, q.sb.Select(userColumns...).From("users").Where("username = ?", username))
	if isNoRows(err) {
		return core.User{}, core.NewNotFound("User", username)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return row.toCore(), nil
}
