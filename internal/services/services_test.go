package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/storage"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev amqp.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) routingKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, len(p.events))
	for i, ev := range p.events {
		keys[i] = ev.RoutingKey()
	}
	return keys
}

type fixture struct {
	repo       *storage.Repository
	categories *CategoryService
	expenses   *ExpenseService
	publisher  *recordingPublisher
	alice      core.Caller
	bob        core.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	repo, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "expenses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	f := &fixture{repo: repo, publisher: &recordingPublisher{}}
	f.categories = NewCategoryService(repo, f.publisher, nil)
	f.expenses = NewExpenseService(repo, f.publisher, nil)
	f.categories.now = func() time.Time { return fixedNow }
	f.expenses.now = func() time.Time { return fixedNow }

	f.alice = f.user(t, "alice")
	f.bob = f.user(t, "bob")
	return f
}

func (f *fixture) user(t *testing.T, username string) core.Caller {
	t.Helper()
	u := core.User{ID: uuid.New(), Username: username, PasswordHash: "x", CreatedAt: fixedNow}
	require.NoError(t, f.repo.CreateUser(context.Background(), u))
	return core.NewCaller(u.ID)
}

func (f *fixture) category(t *testing.T, caller core.Caller, name string) core.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), caller, core.CategoryPayload{Name: core.Of(name)})
	require.NoError(t, err)
	return c
}

func (f *fixture) expense(t *testing.T, caller core.Caller, value, spentAt string, cats ...core.Category) core.Expense {
	t.Helper()
	p := core.ExpensePayload{
		Value:   core.Of(core.DecimalText(value)),
		SpentAt: core.Of(spentAt),
	}
	if len(cats) > 0 {
		ids := make(core.IDList, len(cats))
		for i, c := range cats {
			ids[i] = c.ID.String()
		}
		p.Categories = core.Of(ids)
	}
	e, err := f.expenses.Create(context.Background(), caller, p)
	require.NoError(t, err)
	return e
}

func requireValidation(t *testing.T, err error, fields ...string) *core.ValidationError {
	t.Helper()
	v, ok := core.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	for _, field := range fields {
		require.Contains(t, v.Fields, field)
	}
	return v
}

var errBroker = errors.New("broker down")
