package http

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"expensedash/internal/core"
	applog "expensedash/internal/log"
	"expensedash/internal/session"
)

// handleListExpenses lists every expense, or only one category's with
// ?category=<name>.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	var (
		expenses []core.Expense
		err      error
	)
	if category := sanitizeInput(r.URL.Query().Get("category")); category != "" {
		expenses, err = s.deps.Expenses.ListByCategory(r.Context(), category)
	} else {
		expenses, err = s.deps.Expenses.List(r.Context())
	}
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	NewResponse().Data(toExpensesJSON(expenses)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDecodeError(w, r, applog.OpCreate, err)
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	e, err := s.deps.Expenses.Create(r.Context(), draft)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	s.deps.Session.Update(func(st session.State) session.State {
		return st.WithExpenseAdded(e)
	})

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogExpenseChanged(r.Context(), applog.OpCreate, e.ID, e.Amount.Cents, e.Category)
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+e.ID).
		Data(toExpenseJSON(e)).
		Success("Expense saved").
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDecodeError(w, r, applog.OpUpdate, err)
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}

	e, err := s.deps.Expenses.Update(r.Context(), draft.WithID(id))
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.deps.Session.Update(func(st session.State) session.State {
		next, ok := st.WithExpenseUpdated(e)
		if !ok {
			// Not loaded yet; the next refresh brings it in.
			return st
		}
		return next
	})

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogExpenseChanged(r.Context(), applog.OpUpdate, e.ID, e.Amount.Cents, e.Category)
	NewResponse().Data(toExpenseJSON(e)).Success("Expense updated").Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.deps.Expenses.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	s.deps.Session.Update(func(st session.State) session.State {
		next, _ := st.WithExpenseRemoved(id)
		return next
	})

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogExpenseChanged(r.Context(), applog.OpDelete, id, 0, "")
	NewResponse().Data(map[string]string{"id": id}).Success("Expense deleted").Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.deps.Categories.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, fmt.Errorf("list categories: %w", err))
		return
	}
	NewResponse().Data(toCategoriesJSON(categories)).Write(w)
}
