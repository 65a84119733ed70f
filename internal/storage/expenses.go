package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"expenses/internal/core"
)

const entityExpense = "Expense"

type expenseRow struct {
	ID          uuid.UUID      `db:"id"`
	ValueCents  int64          `db:"value_cents"`
	SpentAt     time.Time      `db:"spent_at"`
	Description sql.NullString `db:"description"`
	CreatorID   uuid.UUID      `db:"creator_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r expenseRow) toCore() core.Expense {
	e := core.Expense{
		ID:         r.ID,
		Value:      core.Money{Cents: r.ValueCents},
		SpentAt:    r.SpentAt.UTC(),
		CreatorID:  r.CreatorID,
		Categories: []core.CategoryRef{},
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
	if r.Description.Valid {
		d := r.Description.String
		e.Description = &d
	}
	return e
}

type expenseCategoryRow struct {
	ExpenseID uuid.UUID `db:"expense_id"`
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
}

var expenseColumns = []string{
	"e.id", "e.value_cents", "e.spent_at", "e.description", "e.creator_id", "e.created_at", "e.updated_at",
}

// ListExpenses returns the owner's expenses matching every constraint in c,
// newest first. Category filtering keeps an expense when it is linked to at
// least one of the requested categories, each expense appearing once.
func (q *Queries) ListExpenses(ctx context.Context, owner uuid.UUID, c core.ExpenseCriteria) ([]core.Expense, error) {
	b := q.sb.Select(expenseColumns...).
		From("expenses e").
		Where("e.creator_id = ?", owner)

	if c.SpentFrom != nil && c.SpentTo != nil {
		b = b.Where("e.spent_at >= ?", *c.SpentFrom).Where("e.spent_at <= ?", *c.SpentTo)
	}
	if c.MinCents != nil {
		b = b.Where("e.value_cents >= ?", *c.MinCents)
	}
	if c.MaxCents != nil {
		b = b.Where("e.value_cents <= ?", *c.MaxCents)
	}
	if len(c.CategoryIDs) > 0 {
		linked := squirrel.Select("1").
			From("expense_categories ec").
			Where("ec.expense_id = e.id").
			Where(squirrel.Eq{"ec.category_id": idStrings(c.CategoryIDs)})
		b = b.Where(squirrel.Expr("EXISTS (?)", linked))
	}

	var rows []expenseRow
	if err := q.selectAll(ctx, &rows, b.OrderBy("e.spent_at DESC", "e.id")); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	expenses := make([]core.Expense, len(rows))
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		expenses[i] = r.toCore()
		ids[i] = r.ID
	}

	refs, err := q.categoryRefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		if linked, ok := refs[expenses[i].ID]; ok {
			expenses[i].Categories = linked
		}
	}
	return expenses, nil
}

// GetExpense returns the expense with id, with its categories, if owner
// created it.
func (q *Queries) GetExpense(ctx context.Context, owner, id uuid.UUID) (core.Expense, error) {
	var row expenseRow
	err := q.get(ctx, &row, q.sb.Select(expenseColumns...).
		From("expenses e").
		Where("e.id = ?", id).
		Where("e.creator_id = ?", owner))
	if isNoRows(err) {
		return core.Expense{}, core.NewNotFound(entityExpense, id.String())
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}

	e := row.toCore()
	refs, err := q.categoryRefs(ctx, []uuid.UUID{id})
	if err != nil {
		return core.Expense{}, err
	}
	if linked, ok := refs[id]; ok {
		e.Categories = linked
	}
	return e, nil
}

// CreateExpense inserts e together with its category associations.
func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := q.exec(ctx, q.sb.Insert("expenses").
		Columns("id", "value_cents", "spent_at", "description", "creator_id", "created_at", "updated_at").
		Values(e.ID, e.Value.Cents, e.SpentAt, e.Description, e.CreatorID, e.CreatedAt, e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return q.SetExpenseCategories(ctx, e.ID, e.CategoryIDs())
}

// UpdateExpense stores the scalar fields of e. Associations are left alone;
// see SetExpenseCategories.
func (q *Queries) UpdateExpense(ctx context.Context, e core.Expense) error {
	n, err := q.exec(ctx, q.sb.Update("expenses").
		Set("value_cents", e.Value.Cents).
		Set("spent_at", e.SpentAt).
		Set("description", e.Description).
		Set("updated_at", e.UpdatedAt).
		Where("id = ?", e.ID).
		Where("creator_id = ?", e.CreatorID))
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n == 0 {
		return core.NewNotFound(entityExpense, e.ID.String())
	}
	return nil
}

// SetExpenseCategories replaces the association set of the expense.
func (q *Queries) SetExpenseCategories(ctx context.Context, expenseID uuid.UUID, categoryIDs []uuid.UUID) error {
	if _, err := q.exec(ctx, q.sb.Delete("expense_categories").Where("expense_id = ?", expenseID)); err != nil {
		return fmt.Errorf("clear expense categories: %w", err)
	}
	if len(categoryIDs) == 0 {
		return nil
	}

	ins := q.sb.Insert("expense_categories").Columns("expense_id", "category_id")
	for _, id := range categoryIDs {
		ins = ins.Values(expenseID, id)
	}
	if _, err := q.exec(ctx, ins); err != nil {
		return fmt.Errorf("link expense categories: %w", err)
	}
	return nil
}

// DeleteExpense removes the owner's expense and its associations.
func (q *Queries) DeleteExpense(ctx context.Context, owner, id uuid.UUID) error {
	_, err := q.exec(ctx, q.sb.Delete("expense_categories").
		Where("expense_id IN (SELECT id FROM expenses WHERE id = ? AND creator_id = ?)", id, owner))
	if err != nil {
		return fmt.Errorf("delete expense associations: %w", err)
	}

	n, err := q.exec(ctx, q.sb.Delete("expenses").
		Where("id = ?", id).
		Where("creator_id = ?", owner))
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return core.NewNotFound(entityExpense, id.String())
	}
	return nil
}

// categoryRefs loads the linked categories of every expense in one query.
func (q *Queries) categoryRefs(ctx context.Context, expenseIDs []uuid.UUID) (map[uuid.UUID][]core.CategoryRef, error) {
	if len(expenseIDs) == 0 {
		return nil, nil
	}

	var rows []expenseCategoryRow
	err := q.selectAll(ctx, &rows, q.sb.Select("ec.expense_id", "c.id", "c.name").
		From("expense_categories ec").
		Join("categories c ON c.id = ec.category_id").
		Where(squirrel.Eq{"ec.expense_id": idStrings(expenseIDs)}).
		OrderBy("c.name", "c.id"))
	if err != nil {
		return nil, fmt.Errorf("load expense categories: %w", err)
	}

	refs := make(map[uuid.UUID][]core.CategoryRef, len(expenseIDs))
	for _, r := range rows {
		refs[r.ExpenseID] = append(refs[r.ExpenseID], core.CategoryRef{ID: r.ID, Name: r.Name})
	}
	return refs, nil
}
