package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"expenses/internal/core"
)

const entityCategory = "Category"

type categoryRow struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatorID uuid.UUID `db:"creator_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r categoryRow) toCore() core.Category {
	return core.Category{
		ID:        r.ID,
		Name:      r.Name,
		CreatorID: r.CreatorID,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type categoryRefRow struct {
	ID   uuid.UUID `db:"id"`
	Name string    `db:"name"`
}

var categoryColumns = []string{"id", "name", "creator_id", "created_at", "updated_at"}

// ListCategories returns the owner's categories ordered by name.
func (q *Queries) ListCategories(ctx context.Context, owner uuid.UUID) ([]core.Category, error) {
	var rows []categoryRow
	err := q.selectAll(ctx, &rows, q.sb.Select(categoryColumns...).
		From("categories").
		Where("creator_id = ?", owner).
		OrderBy("name", "id"))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]core.Category, len(rows))
	for i, r := range rows {
		categories[i] = r.toCore()
	}
	return categories, nil
}

// GetCategory returns the category with id if owner created it.
func (q *Queries) GetCategory(ctx context.Context, owner, id uuid.UUID) (core.Category, error) {
	var row categoryRow
	err := q.get(ctx, &row, q.sb.Select(categoryColumns...).
		From("categories").
		Where("id = ?", id).
		Where("creator_id = ?", owner))
	if isNoRows(err) {
		return core.Category{}, core.NewNotFound(entityCategory, id.String())
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return row.toCore(), nil
}

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := q.exec(ctx, q.sb.Insert("categories").
		Columns(categoryColumns...).
		Values(c.ID, c.Name, c.CreatorID, c.CreatedAt, c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// UpdateCategory stores the name of c. The row must belong to c.CreatorID.
func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) error {
	n, err := q.exec(ctx, q.sb.Update("categories").
		Set("name", c.Name).
		Set("updated_at", c.UpdatedAt).
		Where("id = ?", c.ID).
		Where("creator_id = ?", c.CreatorID))
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n == 0 {
		return core.NewNotFound(entityCategory, c.ID.String())
	}
	return nil
}

// DeleteCategory removes the owner's category and its expense associations.
// The expenses themselves are kept.
func (q *Queries) DeleteCategory(ctx context.Context, owner, id uuid.UUID) error {
	_, err := q.exec(ctx, q.sb.Delete("expense_categories").
		Where("category_id IN (SELECT id FROM categories WHERE id = ? AND creator_id = ?)", id, owner))
	if err != nil {
		return fmt.Errorf("delete category associations: %w", err)
	}

	n, err := q.exec(ctx, q.sb.Delete("categories").
		Where("id = ?", id).
		Where("creator_id = ?", owner))
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return core.NewNotFound(entityCategory, id.String())
	}
	return nil
}

// FindOwnedCategories returns the subset of ids that exist and belong to
// owner. Unknown and foreign ids are silently absent from the result.
func (q *Queries) FindOwnedCategories(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) ([]core.CategoryRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []categoryRefRow
	err := q.selectAll(ctx, &rows, q.sb.Select("id", "name").
		From("categories").
		Where("creator_id = ?", owner).
		Where(squirrel.Eq{"id": idStrings(ids)}).
		OrderBy("name", "id"))
	if err != nil {
		return nil, fmt.Errorf("find owned categories: %w", err)
	}

	refs := make([]core.CategoryRef, len(rows))
	for i, r := range rows {
		refs[i] = core.CategoryRef{ID: r.ID, Name: r.Name}
	}
	return refs, nil
}
