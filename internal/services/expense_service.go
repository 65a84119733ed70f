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

// ExpenseService manages the caller's expenses and their category links.
// Category ids supplied by the caller are attached only when the caller owns
// them; unknown and foreign ids are silently ignored.
type ExpenseService struct {
	repo   *storage.Repository
	events notifier
	logger *log.Logger
	now    func() time.Time
}

func NewExpenseService(repo *storage.Repository, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentExpense)
	return &ExpenseService{
		repo:   repo,
		events: notifier{publisher: publisher, logger: logger},
		logger: logger,
		now:    time.Now,
	}
}

// List returns the caller's expenses matching the filters, newest first.
func (s *ExpenseService) List(ctx context.Context, caller core.Caller, f core.ExpenseFilters) ([]core.Expense, error) {
	criteria, err := f.Criteria()
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.ListExpenses(ctx, caller.UserID, criteria)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "Listed expenses",
		log.FieldOperation, log.OpList,
		log.FieldUserID, caller.String(),
		log.FieldCount, len(expenses))
	return expenses, nil
}

func (s *ExpenseService) Get(ctx context.Context, caller core.Caller, id uuid.UUID) (core.Expense, error) {
	return s.repo.GetExpense(ctx, caller.UserID, id)
}

// Create stores a new expense owned by the caller and links the owned
// subset of the requested categories, atomically.
func (s *ExpenseService) Create(ctx context.Context, caller core.Caller, p core.ExpensePayload) (core.Expense, error) {
	var verr core.ValidationError
	value, _ := validateValue(&verr, p.Value, true)
	spentAt, _ := validateSpentAt(&verr, p.SpentAt, true)
	requested, _ := categoryIDs(&verr, p.Categories)
	if err := verr.Err(); err != nil {
		return core.Expense{}, err
	}

	now := s.timestamp()
	e := core.Expense{
		ID:          uuid.New(),
		Value:       value,
		SpentAt:     spentAt,
		Description: description(p.Description),
		CreatorID:   caller.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		owned, err := q.FindOwnedCategories(ctx, caller.UserID, requested)
		if err != nil {
			return err
		}
		e.Categories = nonNil(owned)
		return q.CreateExpense(ctx, e)
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, caller.String(),
		log.FieldExpenseID, e.ID.String(),
		log.FieldValue, e.Value.String(),
		log.FieldCount, len(e.Categories))
	s.events.publish(ctx, caller, amqp.EntityExpense, amqp.ActionCreated, e.ID)
	return e, nil
}

// Update applies the fields present in p. A present categories member
// replaces the whole association set with its owned subset; an absent one
// leaves the associations untouched.
func (s *ExpenseService) Update(ctx context.Context, caller core.Caller, id uuid.UUID, p core.ExpensePayload) (core.Expense, error) {
	var verr core.ValidationError
	value, hasValue := validateValue(&verr, p.Value, false)
	spentAt, hasSpentAt := validateSpentAt(&verr, p.SpentAt, false)
	requested, hasCategories := categoryIDs(&verr, p.Categories)

	var updated core.Expense
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		e, err := q.GetExpense(ctx, caller.UserID, id)
		if err != nil {
			return err
		}
		if err := verr.Err(); err != nil {
			return err
		}

		if hasValue {
			e.Value = value
		}
		if hasSpentAt {
			e.SpentAt = spentAt
		}
		if p.Description.Set {
			e.Description = description(p.Description)
		}
		e.UpdatedAt = s.timestamp()
		if err := q.UpdateExpense(ctx, e); err != nil {
			return err
		}

		if hasCategories {
			owned, err := q.FindOwnedCategories(ctx, caller.UserID, requested)
			if err != nil {
				return err
			}
			e.Categories = nonNil(owned)
			if err := q.SetExpenseCategories(ctx, e.ID, e.CategoryIDs()); err != nil {
				return err
			}
		}
		updated = e
		return nil
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldUserID, caller.String(),
		log.FieldExpenseID, id.String())
	s.events.publish(ctx, caller, amqp.EntityExpense, amqp.ActionUpdated, id)
	return updated, nil
}

// Delete removes the caller's expense together with its category links.
func (s *ExpenseService) Delete(ctx context.Context, caller core.Caller, id uuid.UUID) error {
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		return q.DeleteExpense(ctx, caller.UserID, id)
	})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldUserID, caller.String(),
		log.FieldExpenseID, id.String())
	s.events.publish(ctx, caller, amqp.EntityExpense, amqp.ActionDeleted, id)
	return nil
}

func (s *ExpenseService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func description(f core.Field[string]) *string {
	if !f.Present() {
		return nil
	}
	d := f.Value
	return &d
}

func nonNil(refs []core.CategoryRef) []core.CategoryRef {
	if refs == nil {
		return []core.CategoryRef{}
	}
	return refs
}
