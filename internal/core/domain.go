package core

import (
	"time"

	"github.com/google/uuid"
)

type (
	// Caller is the authenticated user an operation runs on behalf of.
	// It is the only authorization scope for categories and expenses.
	Caller struct {
		UserID uuid.UUID
	}

	User struct {
		ID           uuid.UUID
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	Category struct {
		ID        uuid.UUID
		Name      string
		CreatorID uuid.UUID
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// CategoryRef is the summary of a category embedded in an expense.
	CategoryRef struct {
		ID   uuid.UUID
		Name string
	}

	Expense struct {
		ID          uuid.UUID
		Value       Money
		SpentAt     time.Time
		Description *string
		CreatorID   uuid.UUID
		Categories  []CategoryRef
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

// NewCaller builds a Caller for the given user id.
func NewCaller(userID uuid.UUID) Caller {
	return Caller{UserID: userID}
}

func (c Caller) String() string {
	return c.UserID.String()
}

// Ref returns the summary form of the category.
func (c Category) Ref() CategoryRef {
	return CategoryRef{ID: c.ID, Name: c.Name}
}

// CategoryIDs returns the ids of the expense's associated categories.
func (e Expense) CategoryIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(e.Categories))
	for i, c := range e.Categories {
		ids[i] = c.ID
	}
	return ids
}
