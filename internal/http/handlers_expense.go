package http

import (
	"net/http"

	"expenses/internal/core"
)

const entityExpense = "Expense"

// handleListExpenses serves GET /expenses/ with the optional start_date,
// end_date, min_value, max_value and categories filters.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, caller core.Caller) {
	expenses, err := s.expenses.List(r.Context(), caller, expenseFilters(r.URL.Query()))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	NewJSONResponse().JSON(newExpenseViews(expenses)).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request, caller core.Caller) {
	id, err := pathID(r, entityExpense)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	e, err := s.expenses.Get(r.Context(), caller, id)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	NewJSONResponse().JSON(newExpenseView(e)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, caller core.Caller) {
	var p core.ExpensePayload
	if err := decodeObject(w, r, expenseMembers(&p)); err != nil {
		ErrorResponse(w, r, err)
		return
	}
	e, err := s.expenses.Create(r.Context(), caller, p)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(newExpenseView(e)).Write(w)
}

// handleUpdateExpense applies the members present in the body. A categories
// member replaces the association set; leaving it out keeps it.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, caller core.Caller) {
	id, err := pathID(r, entityExpense)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	var p core.ExpensePayload
	if err := decodeObject(w, r, expenseMembers(&p)); err != nil {
		ErrorResponse(w, r, err)
		return
	}
	e, err := s.expenses.Update(r.Context(), caller, id, p)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	NewJSONResponse().JSON(newExpenseView(e)).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, caller core.Caller) {
	id, err := pathID(r, entityExpense)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	if err := s.expenses.Delete(r.Context(), caller, id); err != nil {
		ErrorResponse(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
