package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"expensedash/internal/core"
	applog "expensedash/internal/log"
	"expensedash/internal/session"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.deps.Budgets.List(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	NewResponse().Data(toBudgetsJSON(budgets)).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDecodeError(w, r, applog.OpCreate, err)
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	b, err := s.deps.Budgets.Create(r.Context(), draft)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	s.syncBudgets(r.Context())

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/budgets/"+b.ID).
		Data(toBudgetJSON(b)).
		Success("Budget saved").
		Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeDecodeError(w, r, applog.OpUpdate, err)
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}

	b, err := s.deps.Budgets.Update(r.Context(), draft.WithID(id))
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.syncBudgets(r.Context())

	NewResponse().Data(toBudgetJSON(b)).Success("Budget updated").Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.deps.Budgets.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	s.syncBudgets(r.Context())

	NewResponse().Data(map[string]string{"id": id}).Success("Budget deleted").Write(w)
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r, s.deps.Today)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	progress, err := s.deps.Budgets.Progress(r.Context(), asOf)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().Data(toProgressJSON(progress)).Write(w)
}

func (s *Server) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	pending, err := s.deps.Budgets.Pending(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	NewResponse().Data(toBudgetsJSON(pending)).Write(w)
}

func (s *Server) handleGenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r, s.deps.Today)
	if err != nil {
		s.writeError(w, r, applog.OpSuggest, err)
		return
	}
	suggestions, err := s.deps.Budgets.Suggest(r.Context(), asOf)
	if err != nil {
		s.writeError(w, r, applog.OpSuggest, err)
		return
	}
	s.deps.Session.Update(func(st session.State) session.State {
		return st.WithSuggestions(suggestions)
	})

	b := NewResponse().Data(toBudgetsJSON(suggestions))
	if len(suggestions) == 0 {
		b.Notify(NotificationInfo, "No spending to base suggestions on", 3000)
	} else {
		b.Success("Budget suggestions ready")
	}
	b.Write(w)
}

func (s *Server) handleApplySuggestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := s.deps.Budgets.ApplySuggestionByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpApply, err)
		return
	}
	s.deps.Session.Update(func(st session.State) session.State {
		return st.WithReconciliation(rec)
	})

	msg := "Budget updated from suggestion"
	if rec.Action.Kind == core.ActionCreated {
		msg = "Budget created from suggestion"
	}
	NewResponse().Data(toReconciliationJSON(rec)).Success(msg).Write(w)
}

// syncBudgets copies the stored budget list into the session after a
// direct budget edit. A failed read leaves the session for the next
// refresh.
func (s *Server) syncBudgets(ctx context.Context) {
	budgets, err := s.deps.Budgets.List(ctx)
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Could not sync budgets into session", "error", err)
		return
	}
	s.deps.Session.Update(func(st session.State) session.State {
		return st.WithBudgets(budgets)
	})
}
