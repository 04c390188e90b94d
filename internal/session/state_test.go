package session

import (
	"testing"

	"expensedash/internal/core"
	"expensedash/internal/ports/memory"
)

func seededState(t *testing.T) State {
	t.Helper()
	seed := memory.DemoSeed()
	asOf := core.NewDate(2024, 5, 31)
	a, err := core.ComputeAnalytics(seed.Expenses, seed.Categories, asOf)
	if err != nil {
		t.Fatalf("ComputeAnalytics() error = %v", err)
	}
	s, ok := State{}.ApplySnapshot(1, Snapshot{
		Expenses:   seed.Expenses,
		Categories: seed.Categories,
		Budgets:    seed.Budgets,
		Analytics:  a,
	})
	if !ok {
		t.Fatal("first snapshot should apply")
	}
	return s
}

func TestState_ApplySnapshotDiscardsOlderSeq(t *testing.T) {
	s := seededState(t)
	if _, ok := s.ApplySnapshot(1, Snapshot{}); ok {
		t.Error("same seq must be discarded")
	}
	next, ok := s.ApplySnapshot(2, Snapshot{})
	if !ok || next.Seq != 2 || len(next.Expenses) != 0 {
		t.Errorf("newer snapshot not applied: %+v", next)
	}
	if len(s.Expenses) != 8 {
		t.Error("receiver modified")
	}
}

func TestState_ExpenseTransitions(t *testing.T) {
	s := seededState(t)
	total := s.Analytics.TotalSpent.Cents

	e := core.Expense{ID: "x", Amount: core.Money{Cents: 1000}, Date: core.NewDate(2024, 5, 30), Category: "Other", Description: "Gift"}
	added := s.WithExpenseAdded(e)
	if len(added.Expenses) != 9 || added.Expenses[0].ID != "x" {
		t.Fatalf("add did not prepend")
	}
	if added.Analytics.TotalSpent.Cents != total+1000 {
		t.Errorf("analytics not recomputed: %d", added.Analytics.TotalSpent.Cents)
	}
	if added.Version != s.Version+1 {
		t.Errorf("version = %d", added.Version)
	}
	if len(s.Expenses) != 8 {
		t.Error("receiver modified by add")
	}

	e.Amount = core.Money{Cents: 500}
	updated, ok := added.WithExpenseUpdated(e)
	if !ok || updated.Expenses[0].Amount.Cents != 500 || added.Expenses[0].Amount.Cents != 1000 {
		t.Errorf("update wrong or leaked into previous state")
	}
	if _, ok := s.WithExpenseUpdated(core.Expense{ID: "missing"}); ok {
		t.Error("update of unknown id reported ok")
	}

	removed, ok := updated.WithExpenseRemoved("x")
	if !ok || len(removed.Expenses) != 8 || removed.Analytics.TotalSpent.Cents != total {
		t.Errorf("remove: ok=%v len=%d", ok, len(removed.Expenses))
	}
	if len(updated.Expenses) != 9 {
		t.Error("receiver modified by remove")
	}
}

func TestState_WithReconciliation(t *testing.T) {
	s := seededState(t).WithSuggestions([]core.Budget{{ID: "s1", Category: "Education", Amount: core.Money{Cents: 100}, Period: core.Monthly}})
	r, err := core.ApplySuggestion(s.Budgets, s.Suggestions, s.Suggestions[0], func() string { return "b9" })
	if err != nil {
		t.Fatalf("ApplySuggestion() error = %v", err)
	}
	next := s.WithReconciliation(r)
	if len(next.Budgets) != 5 || len(next.Suggestions) != 0 {
		t.Errorf("budgets=%d suggestions=%d", len(next.Budgets), len(next.Suggestions))
	}
	if len(s.Suggestions) != 1 {
		t.Error("receiver modified")
	}
}
