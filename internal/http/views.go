package http

import (
	"time"

	"github.com/google/uuid"

	"expenses/internal/core"
)

type categoryItem struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type categoryDetail struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Creator   uuid.UUID `json:"creator"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

type expenseView struct {
	ID          uuid.UUID      `json:"id"`
	Value       string         `json:"value"`
	SpentAt     string         `json:"spent_at"`
	Description *string        `json:"description"`
	Creator     uuid.UUID      `json:"creator"`
	Categories  []categoryItem `json:"categories"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

func newCategoryItems(categories []core.Category) []categoryItem {
	items := make([]categoryItem, len(categories))
	for i, c := range categories {
		items[i] = categoryItem{ID: c.ID, Name: c.Name}
	}
	return items
}

func newCategoryDetail(c core.Category) categoryDetail {
	return categoryDetail{
		ID:        c.ID,
		Name:      c.Name,
		Creator:   c.CreatorID,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

func newExpenseView(e core.Expense) expenseView {
	refs := make([]categoryItem, len(e.Categories))
	for i, c := range e.Categories {
		refs[i] = categoryItem{ID: c.ID, Name: c.Name}
	}
	return expenseView{
		ID:          e.ID,
		Value:       e.Value.String(),
		SpentAt:     formatTime(e.SpentAt),
		Description: e.Description,
		Creator:     e.CreatorID,
		Categories:  refs,
		CreatedAt:   formatTime(e.CreatedAt),
		UpdatedAt:   formatTime(e.UpdatedAt),
	}
}

func newExpenseViews(expenses []core.Expense) []expenseView {
	views := make([]expenseView, len(expenses))
	for i, e := range expenses {
		views[i] = newExpenseView(e)
	}
	return views
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
