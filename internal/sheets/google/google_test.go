package google

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"expensedash/internal/core"
)

// fakeValues is an in-memory sheet addressed with A1 ranges of the form
// "Sheet!A<r>:H<r>".
type fakeValues struct {
	mu      sync.Mutex
	grid    [][]any
	gets    int
	failGet bool
	failPut bool
}

func (f *fakeValues) Get(_ context.Context, _, _ string) ([][]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.failGet {
		return nil, errors.New("quota exceeded")
	}
	out := make([][]any, len(f.grid))
	copy(out, f.grid)
	return out, nil
}

func (f *fakeValues) Update(_ context.Context, _, rng string, rows [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return errors.New("503 backend error")
	}
	row, err := startRow(rng)
	if err != nil {
		return err
	}
	for len(f.grid) < row {
		f.grid = append(f.grid, nil)
	}
	f.grid[row-1] = rows[0]
	return nil
}

func startRow(rng string) (int, error) {
	cell := rng[strings.Index(rng, "!")+2:]
	if i := strings.Index(cell, ":"); i >= 0 {
		cell = cell[:i]
	}
	n, err := strconv.Atoi(cell)
	if err != nil {
		return 0, fmt.Errorf("bad range %q", rng)
	}
	return n, nil
}

func expense(id string, cents int64) core.Expense {
	return core.Expense{ID: id, Amount: core.Money{Cents: cents}, Date: core.NewDate(2024, 5, 2), Category: "Food & Dining", Description: "Groceries"}
}

func TestClient_UpsertAppendsThenUpdates(t *testing.T) {
	f := &fakeValues{}
	c := newClient(f, "sheet-id", "Expenses")
	ctx := context.Background()

	if err := c.UpsertExpense(ctx, expense("a", 1000), 1); err != nil {
		t.Fatalf("UpsertExpense(a) error = %v", err)
	}
	if err := c.UpsertExpense(ctx, expense("b", 2000), 2); err != nil {
		t.Fatalf("UpsertExpense(b) error = %v", err)
	}
	if err := c.UpsertExpense(ctx, expense("a", 1500), 3); err != nil {
		t.Fatalf("UpsertExpense(a again) error = %v", err)
	}

	if len(f.grid) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(f.grid))
	}
	if f.grid[0][0] != "ID" {
		t.Errorf("header = %v", f.grid[0])
	}
	if f.grid[1][0] != "a" || f.grid[1][4] != 15.0 {
		t.Errorf("row for a = %v", f.grid[1])
	}
	if f.grid[2][0] != "b" {
		t.Errorf("row for b = %v", f.grid[2])
	}
	if f.gets != 1 {
		t.Errorf("index should be cached, got %d reads", f.gets)
	}
}

func TestClient_OutdatedEventsAreSkipped(t *testing.T) {
	f := &fakeValues{}
	c := newClient(f, "sheet-id", "Expenses")
	ctx := context.Background()

	_ = c.UpsertExpense(ctx, expense("a", 1000), 5)
	if err := c.DeleteExpense(ctx, "a", 6); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	// A late update must not resurrect the row.
	if err := c.UpsertExpense(ctx, expense("a", 9999), 4); err != nil {
		t.Fatalf("UpsertExpense(late) error = %v", err)
	}
	if f.grid[1][7] != statusDeleted {
		t.Errorf("row = %v, want tombstone", f.grid[1])
	}
}

func TestClient_ReadsExistingSheet(t *testing.T) {
	f := &fakeValues{grid: [][]any{
		header,
		{"x", "2024-05-01", "Old", "Other", 1.0, "", "7", statusActive},
		{},
		{"y", "2024-05-01", "Old", "Other", 2.0, "", "3", statusActive},
	}}
	c := newClient(f, "sheet-id", "Expenses")
	ctx := context.Background()

	if err := c.UpsertExpense(ctx, expense("x", 100), 7); err != nil {
		t.Fatal(err)
	}
	if f.grid[1][2] != "Old" {
		t.Error("same seq must not overwrite")
	}
	if err := c.UpsertExpense(ctx, expense("z", 100), 1); err != nil {
		t.Fatal(err)
	}
	if len(f.grid) != 5 || f.grid[4][0] != "z" {
		t.Errorf("new row not appended after existing rows: %v", f.grid)
	}
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()

	c := newClient(&fakeValues{failGet: true}, "sheet-id", "Expenses")
	if err := c.UpsertExpense(ctx, expense("a", 100), 1); !errors.Is(err, core.ErrTransport) {
		t.Errorf("read failure should be transport error, got %v", err)
	}

	if err := c.UpsertExpense(ctx, core.Expense{ID: "a"}, 1); !errors.Is(err, core.ErrValidation) {
		t.Errorf("invalid expense should fail validation, got %v", err)
	}

	f := &fakeValues{}
	c = newClient(f, "sheet-id", "Expenses")
	_ = c.UpsertExpense(ctx, expense("a", 100), 1)
	f.failPut = true
	if err := c.UpsertExpense(ctx, expense("a", 200), 2); !errors.Is(err, core.ErrTransport) {
		t.Errorf("write failure should be transport error, got %v", err)
	}
	if c.rows != nil {
		t.Error("index should be invalidated after a failed write")
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}
