package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"expensedash/internal/core"
	"expensedash/internal/ports"
)

var _ ports.Repository = (*Store)(nil)

func TestDemoSeed(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	cats, _ := s.ListCategories(ctx)
	if len(cats) != 10 || cats[0].Name != "Food & Dining" || cats[9].Color != core.FallbackColor {
		t.Fatalf("unexpected categories: %+v", cats)
	}
	exps, _ := s.ListExpenses(ctx)
	var total int64
	for _, e := range exps {
		total += e.Amount.Cents
	}
	if len(exps) != 8 || total != 157516 {
		t.Fatalf("unexpected expenses: n=%d total=%d", len(exps), total)
	}
	budgets, _ := s.ListBudgets(ctx)
	if len(budgets) != 4 {
		t.Fatalf("unexpected budgets: %+v", budgets)
	}
}

func TestExpenseCRUD(t *testing.T) {
	s := New(Seed{})
	ctx := context.Background()
	e := core.Expense{ID: "a", Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 5, 1), Category: "Other", Description: "x"}

	if _, err := s.CreateExpense(ctx, e); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateExpense(ctx, e); !errors.Is(err, core.ErrDuplicateID) {
		t.Fatalf("expected duplicate id, got %v", err)
	}
	second := e
	second.ID = "b"
	second.Date = core.NewDate(2024, 4, 1)
	if _, err := s.CreateExpense(ctx, second); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, _ := s.ListExpenses(ctx)
	if list[0].ID != "b" || list[1].ID != "a" {
		t.Fatalf("last created expense should come first regardless of date: %+v", list)
	}

	e.Description = "changed"
	if _, err := s.UpdateExpense(ctx, e); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetExpense(ctx, "a")
	if got.Description != "changed" {
		t.Fatalf("update not applied: %+v", got)
	}

	missing := e
	missing.ID = "zzz"
	if _, err := s.UpdateExpense(ctx, missing); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteExpense(ctx, "zzz"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteExpense(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetExpense(ctx, "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	list, _ := s.ListExpenses(ctx)
	list[0].Description = "mutated"
	again, _ := s.ListExpenses(ctx)
	if again[0].Description == "mutated" {
		t.Fatalf("store leaked its internal slice")
	}
}

func TestBudgetUniqueCategory(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	dup := core.Budget{ID: "x", Category: "Shopping", Amount: core.Money{Cents: 1}, Period: core.Monthly}
	if _, err := s.CreateBudget(ctx, dup); !errors.Is(err, core.ErrDuplicateBudget) {
		t.Fatalf("expected duplicate budget, got %v", err)
	}
	move := core.Budget{ID: "1", Category: "Shopping", Amount: core.Money{Cents: 1}, Period: core.Monthly}
	if _, err := s.UpdateBudget(ctx, move); !errors.Is(err, core.ErrDuplicateBudget) {
		t.Fatalf("expected duplicate budget on update, got %v", err)
	}
	if err := s.DeleteBudget(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCommitReconciliation(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	pending := []core.Budget{
		{ID: "suggested-1", Category: "Food & Dining", Amount: core.Money{Cents: 65000}, Period: core.Monthly},
		{ID: "suggested-9", Category: "Education", Amount: core.Money{Cents: 2000}, Period: core.Monthly},
	}
	if err := s.ReplaceSuggestions(ctx, pending); err != nil {
		t.Fatalf("replace: %v", err)
	}

	current, _ := s.ListBudgets(ctx)
	r, err := core.ApplySuggestion(current, pending, pending[0], nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := s.CommitReconciliation(ctx, r); err != nil {
		t.Fatalf("commit: %v", err)
	}
	budgets, _ := s.ListBudgets(ctx)
	if b, _ := core.FindBudgetByCategory(budgets, "Food & Dining"); b.ID != "1" || b.Amount.Cents != 65000 {
		t.Fatalf("budget not updated: %+v", b)
	}
	left, _ := s.ListSuggestions(ctx)
	if len(left) != 1 || left[0].ID != "suggested-9" {
		t.Fatalf("unexpected pending: %+v", left)
	}
}

func TestCommitReconciliationFailureChangesNothing(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	pending := []core.Budget{{ID: "suggested-5", Category: "Shopping", Amount: core.Money{Cents: 900}, Period: core.Monthly}}
	_ = s.ReplaceSuggestions(ctx, pending)

	// A create for a category that already has a budget must fail.
	r := core.Reconciliation{
		Budget:       core.Budget{ID: "new", Category: "Shopping", Amount: core.Money{Cents: 900}, Period: core.Monthly},
		Action:       core.ReconcileAction{Kind: core.ActionCreated, BudgetID: "new"},
		SuggestionID: "suggested-5",
	}
	if err := s.CommitReconciliation(ctx, r); !errors.Is(err, core.ErrDuplicateBudget) {
		t.Fatalf("expected duplicate budget, got %v", err)
	}
	budgets, _ := s.ListBudgets(ctx)
	left, _ := s.ListSuggestions(ctx)
	if len(budgets) != 4 || len(left) != 1 {
		t.Fatalf("state changed on failure: budgets=%d pending=%d", len(budgets), len(left))
	}
}

func TestReplaceSuggestionsRejectsBadContract(t *testing.T) {
	s := New(Seed{})
	bad := []core.Budget{
		{ID: "a", Category: "Food", Amount: core.Money{Cents: 1}, Period: core.Monthly},
		{ID: "b", Category: "Food", Amount: core.Money{Cents: 2}, Period: core.Monthly},
	}
	if err := s.ReplaceSuggestions(context.Background(), bad); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != 10 {
		t.Fatalf("expected demo categories when file missing, got %d", len(cats))
	}
	if exps, _ := s.ListExpenses(context.Background()); len(exps) != 8 {
		t.Fatalf("expected demo expenses when file missing, got %d", len(exps))
	}

	content := "// header\nGroceries #22C55E\nRent\nGroceries #000000\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s = NewFromFiles(dir)
	cats, _ = s.ListCategories(context.Background())
	if len(cats) != 2 || cats[0].Name != "Groceries" || cats[0].Color != "#22C55E" || cats[1].Name != "Rent" || cats[1].Color != "" {
		t.Fatalf("unexpected cats: %+v", cats)
	}
	if exps, _ := s.ListExpenses(context.Background()); len(exps) != 0 {
		t.Fatalf("seed file should start without expenses, got %d", len(exps))
	}
}
