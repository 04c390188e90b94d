package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"expensedash/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements ports.Repository on a local SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations
	if _, err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return core.Transport("ping database", r.db.PingContext(ctx))
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, core.Transport("list expenses", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := expenseFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.NotFound("expense", id)
	}
	if err != nil {
		return core.Expense{}, core.Transport("get expense", err)
	}
	return expenseFromRow(row)
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := r.queries.CreateExpense(ctx, expenseToRow(e)); err != nil {
		if isUniqueViolation(err, "expenses.id") {
			return core.Expense{}, core.Invalid("id", core.ErrDuplicateID)
		}
		return core.Expense{}, core.Transport("create expense", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String(),
		"category", e.Category)

	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	n, err := r.queries.UpdateExpense(ctx, expenseToRow(e))
	if err != nil {
		return core.Expense{}, core.Transport("update expense", err)
	}
	if n == 0 {
		return core.Expense{}, core.NotFound("expense", e.ID)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	n, err := r.queries.DeleteExpense(ctx, id)
	if err != nil {
		return core.Transport("delete expense", err)
	}
	if n == 0 {
		return core.NotFound("expense", id)
	}
	return nil
}

// ListCategories returns the categories seeded by migrations. Categories
// are managed via migrations only.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, core.Transport("list categories", err)
	}
	out := make([]core.Category, len(rows))
	for i, row := range rows {
		out[i] = core.Category{ID: row.ID, Name: row.Name, Color: row.Color}
	}
	return out, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx)
	if err != nil {
		return nil, core.Transport("list budgets", err)
	}
	return budgetsFromRows(rows), nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := createBudgetTx(ctx, r.queries, b); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := updateBudgetTx(ctx, r.queries, b); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	n, err := r.queries.DeleteBudget(ctx, id)
	if err != nil {
		return core.Transport("delete budget", err)
	}
	if n == 0 {
		return core.NotFound("budget", id)
	}
	return nil
}

func (r *SQLiteRepository) ListSuggestions(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.queries.ListSuggestions(ctx)
	if err != nil {
		return nil, core.Transport("list suggestions", err)
	}
	return budgetsFromRows(rows), nil
}

// ReplaceSuggestions swaps the whole pending set in one transaction.
func (r *SQLiteRepository) ReplaceSuggestions(ctx context.Context, suggestions []core.Budget) error {
	if err := core.ValidateSuggestions(suggestions); err != nil {
		return err
	}
	return r.inTx(ctx, "replace suggestions", func(q *Queries) error {
		if err := q.ClearSuggestions(ctx); err != nil {
			return core.Transport("clear suggestions", err)
		}
		for i, s := range suggestions {
			if err := q.CreateSuggestion(ctx, budgetToRow(s), i); err != nil {
				return core.Transport("insert suggestion", err)
			}
		}
		return nil
	})
}

// CommitReconciliation writes the budget and drops the suggestion in one
// transaction.
func (r *SQLiteRepository) CommitReconciliation(ctx context.Context, rec core.Reconciliation) error {
	if err := rec.Budget.Validate(); err != nil {
		return err
	}
	err := r.inTx(ctx, "commit reconciliation", func(q *Queries) error {
		switch rec.Action.Kind {
		case core.ActionCreated:
			if err := createBudgetTx(ctx, q, rec.Budget); err != nil {
				return err
			}
		case core.ActionUpdated:
			if err := updateBudgetTx(ctx, q, rec.Budget); err != nil {
				return err
			}
		default:
			return core.Invalid("action", core.ErrUnknownAction)
		}
		if err := q.DeleteSuggestion(ctx, rec.SuggestionID); err != nil {
			return core.Transport("delete suggestion", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget suggestion applied",
		"suggestion_id", rec.SuggestionID,
		"budget_id", rec.Budget.ID,
		"action", string(rec.Action.Kind))
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, op string, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transport(op+": begin", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "op", op, "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.Transport(op+": commit", err)
	}
	return nil
}

func createBudgetTx(ctx context.Context, q *Queries, b core.Budget) error {
	if _, err := q.GetBudgetByCategory(ctx, b.Category); err == nil {
		return core.Invalid("category", core.ErrDuplicateBudget)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return core.Transport("get budget by category", err)
	}
	if err := q.CreateBudget(ctx, budgetToRow(b)); err != nil {
		switch {
		case isUniqueViolation(err, "budgets.category"):
			return core.Invalid("category", core.ErrDuplicateBudget)
		case isUniqueViolation(err, "budgets.id"):
			return core.Invalid("id", core.ErrDuplicateID)
		}
		return core.Transport("create budget", err)
	}
	return nil
}

func updateBudgetTx(ctx context.Context, q *Queries, b core.Budget) error {
	if other, err := q.GetBudgetByCategory(ctx, b.Category); err == nil && other.ID != b.ID {
		return core.Invalid("category", core.ErrDuplicateBudget)
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return core.Transport("get budget by category", err)
	}
	n, err := q.UpdateBudget(ctx, budgetToRow(b))
	if err != nil {
		return core.Transport("update budget", err)
	}
	if n == 0 {
		return core.NotFound("budget", b.ID)
	}
	return nil
}

// isUniqueViolation matches SQLite's "UNIQUE constraint failed: table.col".
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

func expenseToRow(e core.Expense) Expense {
	return Expense{
		ID:          e.ID,
		AmountCents: e.Amount.Cents,
		Date:        e.Date.String(),
		Category:    e.Category,
		Description: e.Description,
		ReceiptURL:  e.ReceiptURL,
	}
}

func expenseFromRow(row Expense) (core.Expense, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Expense{}, core.Invalid(fmt.Sprintf("stored expense %s date", row.ID), err)
	}
	return core.Expense{
		ID:          row.ID,
		Amount:      core.Money{Cents: row.AmountCents},
		Date:        date,
		Category:    row.Category,
		Description: row.Description,
		ReceiptURL:  row.ReceiptURL,
	}, nil
}

func budgetToRow(b core.Budget) Budget {
	return Budget{ID: b.ID, Category: b.Category, AmountCents: b.Amount.Cents, Period: string(b.Period)}
}

func budgetsFromRows(rows []Budget) []core.Budget {
	out := make([]core.Budget, len(rows))
	for i, row := range rows {
		out[i] = core.Budget{
			ID:       row.ID,
			Category: row.Category,
			Amount:   core.Money{Cents: row.AmountCents},
			Period:   core.Period(row.Period),
		}
	}
	return out
}
