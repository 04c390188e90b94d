package services

import (
	"context"
	"fmt"
	"log/slog"

	"expensedash/internal/core"
	"expensedash/internal/metrics"
	"expensedash/internal/ports"
)

// ChangeListener is called after a committed mutation. Listeners must not
// block.
type ChangeListener func(ctx context.Context)

// ExpenseService orchestrates expense operations across the repository and
// the event publisher.
type ExpenseService struct {
	repo       ports.ExpenseRepository
	categories ports.CategoryReader
	publisher  ports.EventPublisher
	newID      func() string
	listeners  []ChangeListener
}

// NewExpenseService wires the service. publisher may be nil.
func NewExpenseService(repo ports.ExpenseRepository, categories ports.CategoryReader, publisher ports.EventPublisher) *ExpenseService {
	return &ExpenseService{
		repo:       repo,
		categories: categories,
		publisher:  publisher,
		newID:      core.NewID,
	}
}

// OnChange registers l. Not safe to call concurrently with mutations.
func (s *ExpenseService) OnChange(l ChangeListener) {
	s.listeners = append(s.listeners, l)
}

func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	exps, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return exps, nil
}

// ListByCategory returns the expenses filed under category, in List order.
// A category that is not defined is a validation error, not an empty list.
func (s *ExpenseService) ListByCategory(ctx context.Context, category string) ([]core.Expense, error) {
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if !core.NewCategorySet(cats).Has(category) {
		return nil, core.Invalid("category", core.ErrUnknownCategory)
	}
	exps, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Expense, 0, len(exps))
	for _, e := range exps {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// Create validates the draft against the known categories, assigns a fresh
// id and stores it.
func (s *ExpenseService) Create(ctx context.Context, d core.ExpenseDraft) (core.Expense, error) {
	if err := s.validate(ctx, d); err != nil {
		return core.Expense{}, err
	}
	e, err := s.repo.CreateExpense(ctx, d.WithID(s.newID()))
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.committed(ctx, ports.ActionCreated, e)
	return e, nil
}

// Update replaces the expense with e.ID. Returns core.ErrNotFound when it
// does not exist.
func (s *ExpenseService) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		return core.Expense{}, core.Invalid("id", core.ErrEmptyID)
	}
	if err := s.validate(ctx, e.Draft()); err != nil {
		return core.Expense{}, err
	}
	updated, err := s.repo.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.committed(ctx, ports.ActionUpdated, updated)
	return updated, nil
}

// Delete removes the expense. Returns core.ErrNotFound when it does not exist.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.committed(ctx, ports.ActionDeleted, core.Expense{ID: id})
	return nil
}

func (s *ExpenseService) validate(ctx context.Context, d core.ExpenseDraft) error {
	if err := d.Validate(); err != nil {
		return err
	}
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	return d.ValidateAgainst(core.NewCategorySet(cats))
}

func (s *ExpenseService) committed(ctx context.Context, action string, e core.Expense) {
	metrics.ExpensesChanged.WithLabelValues(action).Inc()
	slog.InfoContext(ctx, "Expense "+action,
		"expense_id", e.ID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)

	// Publish async change event (non-blocking for the caller)
	if err := s.publish(ctx, action, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"expense_id", e.ID, "action", action, "error", err)
		// Don't fail the request - the change is committed locally
	}

	for _, l := range s.listeners {
		l(ctx)
	}
}

func (s *ExpenseService) publish(ctx context.Context, action string, e core.Expense) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping expense event")
		return nil
	}
	return s.publisher.PublishExpenseEvent(ctx, action, e)
}
