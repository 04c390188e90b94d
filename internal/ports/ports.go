package ports

import (
	"context"

	"expensedash/internal/core"
)

// Ports for outbound adapters. Every method may fail; implementations
// return errors classified by core.ErrNotFound, core.ErrValidation or
// core.ErrTransport.
type (
	ExpenseRepository interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		// UpdateExpense replaces the expense with the same id. Returns
		// core.ErrNotFound when no such expense exists.
		UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		DeleteExpense(ctx context.Context, id string) error
	}

	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	BudgetRepository interface {
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, id string) error
	}

	// SuggestionStore keeps the pending budget suggestions.
	SuggestionStore interface {
		ListSuggestions(ctx context.Context) ([]core.Budget, error)
		ReplaceSuggestions(ctx context.Context, suggestions []core.Budget) error
		// CommitReconciliation writes r.Budget (insert or update depending
		// on r.Action) and removes r.SuggestionID from the pending set in
		// one atomic step. On error neither change is visible.
		CommitReconciliation(ctx context.Context, r core.Reconciliation) error
	}

	// Repository is the full data access collaborator.
	Repository interface {
		ExpenseRepository
		CategoryReader
		BudgetRepository
		SuggestionStore
	}

	// ReceiptExtractor reads structured data from an uploaded receipt.
	ReceiptExtractor interface {
		Extract(ctx context.Context, name string, data []byte) (core.ReceiptData, error)
	}

	// Suggester proposes budgets from spending history.
	Suggester interface {
		Suggest(ctx context.Context, expenses []core.Expense, categories []core.Category, asOf core.Date) ([]core.Budget, error)
	}

	// EventPublisher announces committed changes to other processes.
	EventPublisher interface {
		PublishExpenseEvent(ctx context.Context, action string, e core.Expense) error
		PublishBudgetEvent(ctx context.Context, action string, b core.Budget) error
	}
)

// Event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)
