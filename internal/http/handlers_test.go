package http

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func (a *testAPI) createCategory(t *testing.T, token, name string) categoryDetail {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/categories/", token, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[categoryDetail](t, rr)
}

func (a *testAPI) createExpense(t *testing.T, token, body string) expenseView {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/expenses/", token, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody[expenseView](t, rr)
}

func TestExpenseLifecycleAcrossUsers(t *testing.T) {
	api := newTestAPI(t)
	food := api.createCategory(t, api.alice, "Food")

	rr := api.do(t, http.MethodPost, "/expenses/", api.alice,
		`{"value": 42.50, "spent_at": "2024-03-01T10:00:00Z", "categories": ["`+food.ID.String()+`"]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody[expenseView](t, rr)
	assert.Equal(t, "42.50", created.Value)
	assert.Equal(t, "2024-03-01T10:00:00Z", created.SpentAt)
	assert.Equal(t, []categoryItem{{ID: food.ID, Name: "Food"}}, created.Categories)
	assert.Nil(t, created.Description)

	path := "/expenses/" + created.ID.String() + "/"

	rr = api.do(t, http.MethodDelete, path, api.bob, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(t, http.MethodDelete, path, api.alice, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = api.do(t, http.MethodGet, path, api.alice, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not found", decodeBody[errorResponse](t, rr).Error)
}

func TestCategoryEndpoints(t *testing.T) {
	api := newTestAPI(t)
	rent := api.createCategory(t, api.alice, "Rent")
	food := api.createCategory(t, api.alice, "Food")
	assert.NotEqual(t, uuid.Nil, food.Creator)
	assert.NotEmpty(t, food.CreatedAt)

	for _, path := range []string{"/categories/", "/categories"} {
		rr := api.do(t, http.MethodGet, path, api.alice, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []categoryItem{{ID: food.ID, Name: "Food"}, {ID: rent.ID, Name: "Rent"}},
			decodeBody[[]categoryItem](t, rr))
	}

	rr := api.do(t, http.MethodGet, "/categories/", api.bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = api.do(t, http.MethodGet, "/categories/"+food.ID.String(), api.alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, food, decodeBody[categoryDetail](t, rr))

	rr = api.do(t, http.MethodGet, "/categories/"+food.ID.String()+"/", api.bob, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(t, http.MethodPut, "/categories/"+food.ID.String()+"/", api.alice, map[string]any{"name": "Groceries"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Groceries", decodeBody[categoryDetail](t, rr).Name)

	rr = api.do(t, http.MethodPut, "/categories/"+food.ID.String()+"/", api.bob, map[string]any{"name": "Stolen"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(t, http.MethodDelete, "/categories/"+rent.ID.String()+"/", api.bob, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = api.do(t, http.MethodDelete, "/categories/"+rent.ID.String()+"/", api.alice, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = api.do(t, http.MethodGet, "/categories/"+rent.ID.String()+"/", api.alice, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInvalidPathIDIsNotFound(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/categories/not-a-uuid/", "/expenses/42/", "/expenses/42"} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			rr := api.do(t, method, path, api.alice, map[string]any{})
			assert.Equal(t, http.StatusNotFound, rr.Code, "%s %s", method, path)
		}
	}
}

func TestRequestValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		field  string
		msg    string
	}{
		{"category missing name", http.MethodPost, "/categories/", `{}`, "name", core.MsgRequired},
		{"category empty body", http.MethodPost, "/categories/", ``, "name", core.MsgRequired},
		{"category name not a string", http.MethodPost, "/categories/", `{"name": 5}`, "name", msgNotString},
		{"malformed json", http.MethodPost, "/categories/", `{"name": `, nonFieldErrors, ""},
		{"array body", http.MethodPost, "/expenses/", `[1, 2]`, nonFieldErrors, "Invalid data. Expected a dictionary, but got array."},
		{"expense value not a number", http.MethodPost, "/expenses/", `{"value": "abc", "spent_at": "2024-01-01"}`, "value", core.MsgNotNumber},
		{"expense value boolean", http.MethodPost, "/expenses/", `{"value": true, "spent_at": "2024-01-01"}`, "value", core.MsgNotNumber},
		{"expense bad spent_at", http.MethodPost, "/expenses/", `{"value": "1", "spent_at": "yesterday"}`, "spent_at", core.MsgDatetime},
		{"expense categories not a list", http.MethodPost, "/expenses/", `{"value": "1", "spent_at": "2024-01-01", "categories": {"a": 1}}`, "categories", msgNotList},
		{"expense too many decimals", http.MethodPost, "/expenses/", `{"value": "1.234", "spent_at": "2024-01-01"}`, "value", "Ensure that there are no more than 2 decimal places."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, tt.method, tt.path, api.alice, tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

			body := decodeBody[errorResponse](t, rr)
			assert.Equal(t, "validation failed", body.Error)
			require.Contains(t, body.Fields, tt.field)
			if tt.msg != "" {
				assert.Equal(t, []string{tt.msg}, body.Fields[tt.field])
			}
		})
	}
}

func TestCreateExpenseIgnoresReadOnlyAndForeignInput(t *testing.T) {
	api := newTestAPI(t)
	mine := api.createCategory(t, api.alice, "Mine")
	theirs := api.createCategory(t, api.bob, "Theirs")

	e := api.createExpense(t, api.alice, `{
		"id": "00000000-0000-0000-0000-000000000001",
		"creator": "`+uuid.NewString()+`",
		"value": "12",
		"spent_at": "2024-02-02",
		"description": "lunch",
		"unknown": true,
		"categories": ["`+mine.ID.String()+`", "`+theirs.ID.String()+`", "garbage"]
	}`)

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000001", e.ID.String())
	assert.Equal(t, mine.Creator, e.Creator)
	assert.Equal(t, "12.00", e.Value)
	assert.Equal(t, "2024-02-02T00:00:00Z", e.SpentAt)
	require.NotNil(t, e.Description)
	assert.Equal(t, "lunch", *e.Description)
	assert.Equal(t, []categoryItem{{ID: mine.ID, Name: "Mine"}}, e.Categories)
}

func TestUpdateExpenseEndpoint(t *testing.T) {
	api := newTestAPI(t)
	food := api.createCategory(t, api.alice, "Food")
	e := api.createExpense(t, api.alice,
		`{"value": "10", "spent_at": "2024-01-10T10:00:00Z", "description": "x", "categories": ["`+food.ID.String()+`"]}`)
	path := "/expenses/" + e.ID.String() + "/"

	rr := api.do(t, http.MethodPut, path, api.alice, `{"value": "15.5"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decodeBody[expenseView](t, rr)
	assert.Equal(t, "15.50", updated.Value)
	assert.Equal(t, e.SpentAt, updated.SpentAt)
	assert.Len(t, updated.Categories, 1, "absent categories keep the associations")

	rr = api.do(t, http.MethodPut, path, api.alice, `{"categories": [], "description": null}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated = decodeBody[expenseView](t, rr)
	assert.Empty(t, updated.Categories)
	assert.Nil(t, updated.Description)
	assert.Contains(t, rr.Body.String(), `"categories":[]`)
	assert.Contains(t, rr.Body.String(), `"description":null`)

	rr = api.do(t, http.MethodGet, path, api.alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeBody[expenseView](t, rr).Categories)

	rr = api.do(t, http.MethodPut, path, api.bob, `{"value": "1"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(t, http.MethodPut, path, api.alice, `{"value": "-3"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListExpensesEndpoint(t *testing.T) {
	api := newTestAPI(t)
	food := api.createCategory(t, api.alice, "Food")
	fun := api.createCategory(t, api.alice, "Fun")
	cheap := api.createExpense(t, api.alice, `{"value": "10", "spent_at": "2024-01-05T12:00:00Z", "categories": ["`+food.ID.String()+`"]}`)
	mid := api.createExpense(t, api.alice, `{"value": "50", "spent_at": "2024-01-31T23:30:00Z", "categories": ["`+food.ID.String()+`", "`+fun.ID.String()+`"]}`)
	dear := api.createExpense(t, api.alice, `{"value": "90", "spent_at": "2024-02-15T08:00:00Z"}`)
	api.createExpense(t, api.bob, `{"value": "20", "spent_at": "2024-01-10T08:00:00Z"}`)

	ids := func(views []expenseView) []uuid.UUID {
		out := make([]uuid.UUID, len(views))
		for i, v := range views {
			out[i] = v.ID
		}
		return out
	}

	tests := []struct {
		name  string
		query string
		want  []uuid.UUID
	}{
		{"no filters newest first", "", []uuid.UUID{dear.ID, mid.ID, cheap.ID}},
		{"value range inclusive", "?min_value=10&max_value=50", []uuid.UUID{mid.ID, cheap.ID}},
		{"date range whole end day", "?start_date=2024-01-01&end_date=2024-01-31", []uuid.UUID{mid.ID, cheap.ID}},
		{"start date alone is ignored", "?start_date=2024-02-01", []uuid.UUID{dear.ID, mid.ID, cheap.ID}},
		{"empty values are absent", "?min_value=&categories=", []uuid.UUID{dear.ID, mid.ID, cheap.ID}},
		{"repeated categories", "?categories=" + food.ID.String() + "&categories=" + fun.ID.String(), []uuid.UUID{mid.ID, cheap.ID}},
		{"comma separated categories", "?categories=" + fun.ID.String() + "," + food.ID.String(), []uuid.UUID{mid.ID, cheap.ID}},
		{"combined", "?categories=" + food.ID.String() + "&min_value=20", []uuid.UUID{mid.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodGet, "/expenses/"+tt.query, api.alice, nil)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.Equal(t, tt.want, ids(decodeBody[[]expenseView](t, rr)))
		})
	}

	rr := api.do(t, http.MethodGet, "/expenses/?min_value=lots&categories=nope", api.alice, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody[errorResponse](t, rr)
	assert.Contains(t, body.Fields, "min_value")
	assert.Contains(t, body.Fields, "categories")
}

type failingCategories struct {
	CategoryService
}

func (failingCategories) List(context.Context, core.Caller) ([]core.Category, error) {
	return nil, errors.New("pq: relation \"categories\" does not exist")
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	api := newTestAPI(t, func(o *Options) { o.Categories = failingCategories{} })

	rr := api.do(t, http.MethodGet, "/categories/", api.alice, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
}
