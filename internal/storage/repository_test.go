package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"expensedash/internal/core"
	"expensedash/internal/ports"
)

var _ ports.Repository = (*SQLiteRepository)(nil)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsSeedCategories(t *testing.T) {
	repo := newTestRepo(t)
	cats, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 10 {
		t.Fatalf("expected 10 categories, got %d", len(cats))
	}
	if cats[0].Name != "Food & Dining" || cats[9].Name != "Other" {
		t.Fatalf("unexpected order: first=%q last=%q", cats[0].Name, cats[9].Name)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	v2, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if v1 != 2 || v2 != 2 {
		t.Fatalf("expected version 2, got %d and %d", v1, v2)
	}
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := core.Expense{ID: "e1", Amount: core.Money{Cents: 4275}, Date: core.NewDate(2024, 5, 10), Category: "Food & Dining", Description: "Grocery shopping"}
	second := core.Expense{ID: "e2", Amount: core.Money{Cents: 3500}, Date: core.NewDate(2024, 5, 9), Category: "Transportation", Description: "Uber ride", ReceiptURL: "/receipts/r.txt"}
	for _, e := range []core.Expense{first, second} {
		if _, err := repo.CreateExpense(ctx, e); err != nil {
			t.Fatalf("create %s: %v", e.ID, err)
		}
	}
	if _, err := repo.CreateExpense(ctx, first); !errors.Is(err, core.ErrDuplicateID) {
		t.Fatalf("expected duplicate id, got %v", err)
	}

	list, err := repo.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0] != second || list[1] != first {
		t.Fatalf("unexpected list (newest first): %+v", list)
	}

	second.Amount = core.Money{Cents: 4000}
	if _, err := repo.UpdateExpense(ctx, second); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetExpense(ctx, "e2")
	if err != nil || got.Amount.Cents != 4000 {
		t.Fatalf("get after update: %+v err=%v", got, err)
	}

	ghost := first
	ghost.ID = "ghost"
	if _, err := repo.UpdateExpense(ctx, ghost); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if err := repo.DeleteExpense(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
	if err := repo.DeleteExpense(ctx, "e1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetExpense(ctx, "e1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestBudgetsUniqueCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	b := core.Budget{ID: "b1", Category: "Shopping", Amount: core.Money{Cents: 15000}, Period: core.Monthly}
	if _, err := repo.CreateBudget(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := core.Budget{ID: "b2", Category: "Shopping", Amount: core.Money{Cents: 100}, Period: core.Weekly}
	if _, err := repo.CreateBudget(ctx, dup); !errors.Is(err, core.ErrDuplicateBudget) {
		t.Fatalf("expected duplicate budget, got %v", err)
	}

	other := core.Budget{ID: "b3", Category: "Education", Amount: core.Money{Cents: 100}, Period: core.Yearly}
	if _, err := repo.CreateBudget(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}
	other.Category = "Shopping"
	if _, err := repo.UpdateBudget(ctx, other); !errors.Is(err, core.ErrDuplicateBudget) {
		t.Fatalf("expected duplicate budget on update, got %v", err)
	}
	if err := repo.DeleteBudget(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCommitReconciliation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	existing := core.Budget{ID: "b1", Category: "Food & Dining", Amount: core.Money{Cents: 50000}, Period: core.Monthly}
	if _, err := repo.CreateBudget(ctx, existing); err != nil {
		t.Fatalf("create: %v", err)
	}
	pending := []core.Budget{
		{ID: "suggested-1", Category: "Food & Dining", Amount: core.Money{Cents: 65000}, Period: core.Monthly},
		{ID: "suggested-9", Category: "Education", Amount: core.Money{Cents: 2000}, Period: core.Monthly},
	}
	if err := repo.ReplaceSuggestions(ctx, pending); err != nil {
		t.Fatalf("replace: %v", err)
	}

	for i, s := range pending {
		budgets, _ := repo.ListBudgets(ctx)
		current, _ := repo.ListSuggestions(ctx)
		r, err := core.ApplySuggestion(budgets, current, s, nil)
		if err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
		if err := repo.CommitReconciliation(ctx, r); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	budgets, _ := repo.ListBudgets(ctx)
	if len(budgets) != 2 {
		t.Fatalf("expected 2 budgets, got %+v", budgets)
	}
	if budgets[0].ID != "b1" || budgets[0].Amount.Cents != 65000 {
		t.Fatalf("existing budget not updated: %+v", budgets[0])
	}
	if budgets[1].Category != "Education" || budgets[1].Period != core.Monthly {
		t.Fatalf("new budget not created: %+v", budgets[1])
	}
	left, _ := repo.ListSuggestions(ctx)
	if len(left) != 0 {
		t.Fatalf("pending should be empty, got %+v", left)
	}
}

func TestCommitReconciliationRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateBudget(ctx, core.Budget{ID: "b1", Category: "Shopping", Amount: core.Money{Cents: 100}, Period: core.Monthly}); err != nil {
		t.Fatalf("create: %v", err)
	}
	s := core.Budget{ID: "suggested-5", Category: "Shopping", Amount: core.Money{Cents: 900}, Period: core.Monthly}
	if err := repo.ReplaceSuggestions(ctx, []core.Budget{s}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	// Update of a budget that does not exist fails inside the transaction.
	r := core.Reconciliation{
		Budget:       core.Budget{ID: "gone", Category: "Shopping", Amount: core.Money{Cents: 900}, Period: core.Monthly},
		Action:       core.ReconcileAction{Kind: core.ActionUpdated, BudgetID: "gone"},
		SuggestionID: s.ID,
	}
	if err := repo.CommitReconciliation(ctx, r); err == nil {
		t.Fatalf("expected error")
	}
	budgets, _ := repo.ListBudgets(ctx)
	left, _ := repo.ListSuggestions(ctx)
	if len(budgets) != 1 || budgets[0].Amount.Cents != 100 || len(left) != 1 {
		t.Fatalf("state changed on failure: budgets=%+v pending=%+v", budgets, left)
	}
}

func TestReplaceSuggestionsKeepsOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	in := []core.Budget{
		{ID: "suggested-3", Category: "Housing", Amount: core.Money{Cents: 130000}, Period: core.Monthly},
		{ID: "suggested-1", Category: "Food & Dining", Amount: core.Money{Cents: 5000}, Period: core.Monthly},
	}
	if err := repo.ReplaceSuggestions(ctx, in); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := repo.ReplaceSuggestions(ctx, in[1:]); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ := repo.ListSuggestions(ctx)
	if len(got) != 1 || got[0] != in[1] {
		t.Fatalf("unexpected suggestions: %+v", got)
	}
}
