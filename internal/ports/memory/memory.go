package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"expensedash/internal/core"
)

// Store is an in-process Repository. All reads return copies.
type Store struct {
	mu          sync.Mutex
	cats        []core.Category
	expenses    []core.Expense
	budgets     []core.Budget
	suggestions []core.Budget
}

// Seed is the initial content of a Store.
type Seed struct {
	Categories []core.Category
	Expenses   []core.Expense
	Budgets    []core.Budget
}

func New(seed Seed) *Store {
	return &Store{
		cats:     dedupeCategories(seed.Categories),
		expenses: append([]core.Expense(nil), seed.Expenses...),
		budgets:  append([]core.Budget(nil), seed.Budgets...),
	}
}

// NewSeeded returns a Store holding the demo dataset.
func NewSeeded() *Store {
	return New(DemoSeed())
}

// NewFromFiles seeds categories from base/seed_categories.txt, one
// "Name #RRGGBB" per line, with no expenses or budgets. A missing or empty
// file yields the full demo dataset.
func NewFromFiles(base string) *Store {
	cats := readCategories(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		return NewSeeded()
	}
	return New(Seed{Categories: cats})
}

// DemoSeed is the reference dataset the dashboard ships with.
func DemoSeed() Seed {
	cats := []core.Category{
		{ID: "1", Name: "Food & Dining", Color: "#10B981"},
		{ID: "2", Name: "Transportation", Color: "#3B82F6"},
		{ID: "3", Name: "Housing", Color: "#8B5CF6"},
		{ID: "4", Name: "Entertainment", Color: "#F59E0B"},
		{ID: "5", Name: "Shopping", Color: "#EC4899"},
		{ID: "6", Name: "Utilities", Color: "#6366F1"},
		{ID: "7", Name: "Healthcare", Color: "#EF4444"},
		{ID: "8", Name: "Personal Care", Color: "#14B8A6"},
		{ID: "9", Name: "Education", Color: "#F97316"},
		{ID: "10", Name: "Other", Color: "#6B7280"},
	}
	expense := func(id string, cents int64, day int, cat, desc string) core.Expense {
		return core.Expense{ID: id, Amount: core.Money{Cents: cents}, Date: core.NewDate(2024, 5, day), Category: cat, Description: desc}
	}
	expenses := []core.Expense{
		expense("1", 4275, 10, "Food & Dining", "Grocery shopping"),
		expense("2", 3500, 9, "Transportation", "Uber ride"),
		expense("3", 120000, 1, "Housing", "Monthly rent"),
		expense("4", 1599, 8, "Entertainment", "Netflix subscription"),
		expense("5", 8543, 7, "Shopping", "New clothes"),
		expense("6", 12000, 2, "Utilities", "Electricity bill"),
		expense("7", 5000, 5, "Healthcare", "Doctor appointment"),
		expense("8", 2599, 4, "Personal Care", "Haircut"),
	}
	budgets := []core.Budget{
		{ID: "1", Category: "Food & Dining", Amount: core.Money{Cents: 50000}, Period: core.Monthly},
		{ID: "2", Category: "Transportation", Amount: core.Money{Cents: 20000}, Period: core.Monthly},
		{ID: "3", Category: "Entertainment", Amount: core.Money{Cents: 10000}, Period: core.Monthly},
		{ID: "4", Category: "Shopping", Amount: core.Money{Cents: 15000}, Period: core.Monthly},
	}
	return Seed{Categories: cats, Expenses: expenses, Budgets: budgets}
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...), nil
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.expenseIndex(id); i >= 0 {
		return s.expenses[i], nil
	}
	return core.Expense{}, core.NotFound("expense", id)
}

// CreateExpense stores e in front of the list, newest first.
func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expenseIndex(e.ID) >= 0 {
		return core.Expense{}, core.Invalid("id", core.ErrDuplicateID)
	}
	s.expenses = append([]core.Expense{e}, s.expenses...)
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(e.ID)
	if i < 0 {
		return core.Expense{}, core.NotFound("expense", e.ID)
	}
	s.expenses[i] = e
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(id)
	if i < 0 {
		return core.NotFound("expense", id)
	}
	s.expenses = append(s.expenses[:i:i], s.expenses[i+1:]...)
	return nil
}

func (s *Store) expenseIndex(id string) int {
	for i, e := range s.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.budgets...), nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertBudget(b); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.replaceBudget(b); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(id)
	if i < 0 {
		return core.NotFound("budget", id)
	}
	s.budgets = append(s.budgets[:i:i], s.budgets[i+1:]...)
	return nil
}

func (s *Store) budgetIndex(id string) int {
	for i, b := range s.budgets {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// insertBudget and replaceBudget enforce one budget per category. Callers
// hold mu.
func (s *Store) insertBudget(b core.Budget) error {
	if s.budgetIndex(b.ID) >= 0 {
		return core.Invalid("id", core.ErrDuplicateID)
	}
	if _, taken := core.FindBudgetByCategory(s.budgets, b.Category); taken {
		return core.Invalid("category", core.ErrDuplicateBudget)
	}
	s.budgets = append(s.budgets, b)
	return nil
}

func (s *Store) replaceBudget(b core.Budget) error {
	i := s.budgetIndex(b.ID)
	if i < 0 {
		return core.NotFound("budget", b.ID)
	}
	if other, taken := core.FindBudgetByCategory(s.budgets, b.Category); taken && other.ID != b.ID {
		return core.Invalid("category", core.ErrDuplicateBudget)
	}
	s.budgets[i] = b
	return nil
}

func (s *Store) ListSuggestions(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.suggestions...), nil
}

func (s *Store) ReplaceSuggestions(_ context.Context, suggestions []core.Budget) error {
	if err := core.ValidateSuggestions(suggestions); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = append([]core.Budget(nil), suggestions...)
	return nil
}

// CommitReconciliation applies the budget write and the suggestion removal
// under one lock; if the write fails nothing changes.
func (s *Store) CommitReconciliation(_ context.Context, r core.Reconciliation) error {
	if err := r.Budget.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch r.Action.Kind {
	case core.ActionCreated:
		err = s.insertBudget(r.Budget)
	case core.ActionUpdated:
		err = s.replaceBudget(r.Budget)
	default:
		err = core.Invalid("action", core.ErrUnknownAction)
	}
	if err != nil {
		return err
	}
	s.suggestions = core.RemoveBudget(s.suggestions, r.SuggestionID)
	return nil
}

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		name, color := line, ""
		if i := strings.LastIndex(line, " #"); i >= 0 {
			name, color = strings.TrimSpace(line[:i]), line[i+1:]
		}
		out = append(out, core.Category{ID: strconv.Itoa(len(out) + 1), Name: name, Color: color})
	}
	return out
}

func dedupeCategories(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	// Preserve input order.
	return out
}
