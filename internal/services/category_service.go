package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

// CategoryService manages the caller's categories. Every operation is scoped
// to caller.UserID; other users' categories behave as if they did not exist.
type CategoryService struct {
	repo   *storage.Repository
	events notifier
	logger *log.Logger
	now    func() time.Time
}

func NewCategoryService(repo *storage.Repository, publisher EventPublisher, logger *log.Logger) *CategoryService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentCategory)
	return &CategoryService{
		repo:   repo,
		events: notifier{publisher: publisher, logger: logger},
		logger: logger,
		now:    time.Now,
	}
}

func (s *CategoryService) List(ctx context.Context, caller core.Caller) ([]core.Category, error) {
	categories, err := s.repo.ListCategories(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "Listed categories",
		log.FieldOperation, log.OpList,
		log.FieldUserID, caller.String(),
		log.FieldCount, len(categories))
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, caller core.Caller, id uuid.UUID) (core.Category, error) {
	return s.repo.GetCategory(ctx, caller.UserID, id)
}

// Create stores a new category owned by the caller.
func (s *CategoryService) Create(ctx context.Context, caller core.Caller, p core.CategoryPayload) (core.Category, error) {
	var verr core.ValidationError
	name, _ := validateName(&verr, p.Name, true)
	if err := verr.Err(); err != nil {
		return core.Category{}, err
	}

	now := s.timestamp()
	c := core.Category{
		ID:        uuid.New(),
		Name:      name,
		CreatorID: caller.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}

	s.logger.InfoContext(ctx, "Category created",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, caller.String(),
		log.FieldCategoryID, c.ID.String())
	s.events.publish(ctx, caller, amqp.EntityCategory, amqp.ActionCreated, c.ID)
	return c, nil
}

// Update applies the fields present in p to the caller's category.
func (s *CategoryService) Update(ctx context.Context, caller core.Caller, id uuid.UUID, p core.CategoryPayload) (core.Category, error) {
	var verr core.ValidationError
	name, hasName := validateName(&verr, p.Name, false)

	var updated core.Category
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		c, err := q.GetCategory(ctx, caller.UserID, id)
		if err != nil {
			return err
		}
		// A missing category is reported before payload errors.
		if err := verr.Err(); err != nil {
			return err
		}
		if hasName {
			c.Name = name
		}
		c.UpdatedAt = s.timestamp()
		if err := q.UpdateCategory(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}

	s.logger.InfoContext(ctx, "Category updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldUserID, caller.String(),
		log.FieldCategoryID, id.String())
	s.events.publish(ctx, caller, amqp.EntityCategory, amqp.ActionUpdated, id)
	return updated, nil
}

// Delete removes the caller's category. Expenses linked to it are kept and
// only lose the association.
func (s *CategoryService) Delete(ctx context.Context, caller core.Caller, id uuid.UUID) error {
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		return q.DeleteCategory(ctx, caller.UserID, id)
	})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.logger.InfoContext(ctx, "Category deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldUserID, caller.String(),
		log.FieldCategoryID, id.String())
	s.events.publish(ctx, caller, amqp.EntityCategory, amqp.ActionDeleted, id)
	return nil
}

func (s *CategoryService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
