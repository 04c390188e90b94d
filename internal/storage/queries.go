package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// WithTx runs the same queries inside tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the table columns.
type (
	Expense struct {
		ID          string
		AmountCents int64
		Date        string
		Category    string
		Description string
		ReceiptURL  string
	}

	Category struct {
		ID    string
		Name  string
		Color string
	}

	Budget struct {
		ID          string
		Category    string
		AmountCents int64
		Period      string
	}
)

const listExpenses = `-- name: ListExpenses :many
SELECT id, amount_cents, date, category, description, receipt_url
FROM expenses
ORDER BY rowid DESC
`

func (q *Queries) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(&i.ID, &i.AmountCents, &i.Date, &i.Category, &i.Description, &i.ReceiptURL); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getExpense = `-- name: GetExpense :one
SELECT id, amount_cents, date, category, description, receipt_url
FROM expenses
WHERE id = ?
`

func (q *Queries) GetExpense(ctx context.Context, id string) (Expense, error) {
	row := q.db.QueryRowContext(ctx, getExpense, id)
	var i Expense
	err := row.Scan(&i.ID, &i.AmountCents, &i.Date, &i.Category, &i.Description, &i.ReceiptURL)
	return i, err
}

const createExpense = `-- name: CreateExpense :exec
INSERT INTO expenses (id, amount_cents, date, category, description, receipt_url)
VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateExpense(ctx context.Context, arg Expense) error {
	_, err := q.db.ExecContext(ctx, createExpense,
		arg.ID, arg.AmountCents, arg.Date, arg.Category, arg.Description, arg.ReceiptURL)
	return err
}

const updateExpense = `-- name: UpdateExpense :execrows
UPDATE expenses
SET amount_cents = ?, date = ?, category = ?, description = ?, receipt_url = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

func (q *Queries) UpdateExpense(ctx context.Context, arg Expense) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateExpense,
		arg.AmountCents, arg.Date, arg.Category, arg.Description, arg.ReceiptURL, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteExpense = `-- name: DeleteExpense :execrows
DELETE FROM expenses WHERE id = ?
`

func (q *Queries) DeleteExpense(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listCategories = `-- name: ListCategories :many
SELECT id, name, color FROM categories ORDER BY CAST(id AS INTEGER), id
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.Color); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listBudgets = `-- name: ListBudgets :many
SELECT id, category, amount_cents, period FROM budgets ORDER BY rowid
`

func (q *Queries) ListBudgets(ctx context.Context) ([]Budget, error) {
	return q.listBudgetRows(ctx, listBudgets)
}

const getBudgetByCategory = `-- name: GetBudgetByCategory :one
SELECT id, category, amount_cents, period FROM budgets WHERE category = ?
`

func (q *Queries) GetBudgetByCategory(ctx context.Context, category string) (Budget, error) {
	row := q.db.QueryRowContext(ctx, getBudgetByCategory, category)
	var i Budget
	err := row.Scan(&i.ID, &i.Category, &i.AmountCents, &i.Period)
	return i, err
}

const createBudget = `-- name: CreateBudget :exec
INSERT INTO budgets (id, category, amount_cents, period) VALUES (?, ?, ?, ?)
`

func (q *Queries) CreateBudget(ctx context.Context, arg Budget) error {
	_, err := q.db.ExecContext(ctx, createBudget, arg.ID, arg.Category, arg.AmountCents, arg.Period)
	return err
}

const updateBudget = `-- name: UpdateBudget :execrows
UPDATE budgets SET category = ?, amount_cents = ?, period = ? WHERE id = ?
`

func (q *Queries) UpdateBudget(ctx context.Context, arg Budget) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateBudget, arg.Category, arg.AmountCents, arg.Period, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteBudget = `-- name: DeleteBudget :execrows
DELETE FROM budgets WHERE id = ?
`

func (q *Queries) DeleteBudget(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBudget, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listSuggestions = `-- name: ListSuggestions :many
SELECT id, category, amount_cents, period FROM budget_suggestions ORDER BY position
`

func (q *Queries) ListSuggestions(ctx context.Context) ([]Budget, error) {
	return q.listBudgetRows(ctx, listSuggestions)
}

const clearSuggestions = `-- name: ClearSuggestions :exec
DELETE FROM budget_suggestions
`

func (q *Queries) ClearSuggestions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, clearSuggestions)
	return err
}

const createSuggestion = `-- name: CreateSuggestion :exec
INSERT INTO budget_suggestions (id, category, amount_cents, period, position) VALUES (?, ?, ?, ?, ?)
`

func (q *Queries) CreateSuggestion(ctx context.Context, arg Budget, position int) error {
	_, err := q.db.ExecContext(ctx, createSuggestion, arg.ID, arg.Category, arg.AmountCents, arg.Period, position)
	return err
}

const deleteSuggestion = `-- name: DeleteSuggestion :exec
DELETE FROM budget_suggestions WHERE id = ?
`

func (q *Queries) DeleteSuggestion(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteSuggestion, id)
	return err
}

func (q *Queries) listBudgetRows(ctx context.Context, query string) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		var i Budget
		if err := rows.Scan(&i.ID, &i.Category, &i.AmountCents, &i.Period); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
