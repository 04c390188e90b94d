package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"expensedash/internal/core"
	"expensedash/internal/metrics"
	"expensedash/internal/ports"
)

// BudgetProgress is spend against one budget in its current period.
type BudgetProgress struct {
	Budget      core.Budget
	Start       core.Date
	End         core.Date // exclusive
	Spent       core.Money
	Remaining   core.Money // negative when over budget
	PercentUsed float64
	OverBudget  bool
}

// BudgetService manages budgets and the pending suggestion set.
type BudgetService struct {
	repo      ports.Repository
	suggester ports.Suggester
	publisher ports.EventPublisher
	newID     func() string
	listeners []ChangeListener
}

// NewBudgetService wires the service. publisher may be nil.
func NewBudgetService(repo ports.Repository, suggester ports.Suggester, publisher ports.EventPublisher) *BudgetService {
	return &BudgetService{
		repo:      repo,
		suggester: suggester,
		publisher: publisher,
		newID:     core.NewID,
	}
}

// OnChange registers l. Not safe to call concurrently with mutations.
func (s *BudgetService) OnChange(l ChangeListener) {
	s.listeners = append(s.listeners, l)
}

func (s *BudgetService) List(ctx context.Context) ([]core.Budget, error) {
	budgets, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// Create adds a budget. A category may hold one budget only.
func (s *BudgetService) Create(ctx context.Context, d core.BudgetDraft) (core.Budget, error) {
	if err := s.validate(ctx, d); err != nil {
		return core.Budget{}, err
	}
	current, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return core.Budget{}, fmt.Errorf("list budgets: %w", err)
	}
	if _, taken := core.FindBudgetByCategory(current, d.Category); taken {
		return core.Budget{}, core.Invalid("category", core.ErrDuplicateBudget)
	}

	b, err := s.repo.CreateBudget(ctx, d.WithID(s.newID()))
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	s.committed(ctx, ports.ActionCreated, b)
	return b, nil
}

// Update changes amount, period or category of an existing budget.
func (s *BudgetService) Update(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		return core.Budget{}, core.Invalid("id", core.ErrEmptyID)
	}
	if err := s.validate(ctx, b.Draft()); err != nil {
		return core.Budget{}, err
	}
	updated, err := s.repo.UpdateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	s.committed(ctx, ports.ActionUpdated, updated)
	return updated, nil
}

func (s *BudgetService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	s.committed(ctx, ports.ActionDeleted, core.Budget{ID: id})
	return nil
}

// Pending returns the suggestions not yet applied.
func (s *BudgetService) Pending(ctx context.Context) ([]core.Budget, error) {
	pending, err := s.repo.ListSuggestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	return pending, nil
}

// Suggest asks the suggester for budgets based on spending up to asOf and
// replaces the pending set with the result.
func (s *BudgetService) Suggest(ctx context.Context, asOf core.Date) ([]core.Budget, error) {
	var (
		expenses   []core.Expense
		categories []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.repo.ListExpenses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.repo.ListCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load spending history: %w", err)
	}

	suggestions, err := s.suggester.Suggest(ctx, expenses, categories, asOf)
	if err != nil {
		return nil, fmt.Errorf("suggest budgets: %w", core.Transport("suggester", err))
	}
	if err := core.ValidateSuggestions(suggestions); err != nil {
		return nil, fmt.Errorf("suggest budgets: %w", err)
	}
	if err := s.repo.ReplaceSuggestions(ctx, suggestions); err != nil {
		return nil, fmt.Errorf("store suggestions: %w", err)
	}

	metrics.SuggestionsGenerated.Add(float64(len(suggestions)))
	slog.InfoContext(ctx, "Budget suggestions generated",
		"count", len(suggestions),
		"as_of", asOf.String())
	return suggestions, nil
}

// ApplySuggestionByID applies the pending suggestion with id. Returns
// core.ErrNotFound when no such suggestion is pending.
func (s *BudgetService) ApplySuggestionByID(ctx context.Context, id string) (core.Reconciliation, error) {
	pending, err := s.repo.ListSuggestions(ctx)
	if err != nil {
		return core.Reconciliation{}, fmt.Errorf("list suggestions: %w", err)
	}
	for _, p := range pending {
		if p.ID == id {
			return s.apply(ctx, pending, p)
		}
	}
	return core.Reconciliation{}, core.NotFound("suggestion", id)
}

// ApplySuggestion merges suggestion into the active budgets: the budget
// for its category gets the suggested amount, or a new budget is created.
// The suggestion leaves the pending set. The write is atomic; on failure
// budgets and pending suggestions are unchanged.
func (s *BudgetService) ApplySuggestion(ctx context.Context, suggestion core.Budget) (core.Reconciliation, error) {
	pending, err := s.repo.ListSuggestions(ctx)
	if err != nil {
		return core.Reconciliation{}, fmt.Errorf("list suggestions: %w", err)
	}
	return s.apply(ctx, pending, suggestion)
}

func (s *BudgetService) apply(ctx context.Context, pending []core.Budget, suggestion core.Budget) (core.Reconciliation, error) {
	if err := s.validate(ctx, suggestion.Draft()); err != nil {
		return core.Reconciliation{}, err
	}
	current, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return core.Reconciliation{}, fmt.Errorf("list budgets: %w", err)
	}

	r, err := core.ApplySuggestion(current, pending, suggestion, s.newID)
	if err != nil {
		return core.Reconciliation{}, err
	}
	if err := s.repo.CommitReconciliation(ctx, r); err != nil {
		return core.Reconciliation{}, fmt.Errorf("commit reconciliation: %w", err)
	}

	metrics.SuggestionsApplied.WithLabelValues(string(r.Action.Kind)).Inc()
	slog.InfoContext(ctx, "Budget suggestion applied",
		"suggestion_id", r.SuggestionID,
		"budget_id", r.Action.BudgetID,
		"action", string(r.Action.Kind),
		"amount_cents", r.Budget.Amount.Cents)

	action := ports.ActionUpdated
	if r.Action.Kind == core.ActionCreated {
		action = ports.ActionCreated
	}
	s.committed(ctx, action, r.Budget)
	return r, nil
}

// Progress reports spend against each budget in the period containing asOf.
func (s *BudgetService) Progress(ctx context.Context, asOf core.Date) ([]BudgetProgress, error) {
	if err := asOf.Validate(); err != nil {
		return nil, core.Invalid("asOf", err)
	}
	var (
		budgets  []core.Budget
		expenses []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = s.repo.ListBudgets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.repo.ListExpenses(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load budget progress: %w", err)
	}

	out := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		w, err := GetPeriodWindower(b.Period)
		if err != nil {
			return nil, core.Invalid("period", core.ErrInvalidPeriod)
		}
		start, end := w.Window(asOf)
		var spent core.Money
		for _, e := range expenses {
			if e.Category == b.Category && InWindow(e.Date, start, end) {
				spent = spent.Add(e.Amount)
			}
		}
		out = append(out, BudgetProgress{
			Budget:      b,
			Start:       start,
			End:         end,
			Spent:       spent,
			Remaining:   b.Amount.Sub(spent),
			PercentUsed: core.Percent(spent, b.Amount),
			OverBudget:  spent.Cents > b.Amount.Cents,
		})
	}
	return out, nil
}

func (s *BudgetService) validate(ctx context.Context, d core.BudgetDraft) error {
	if err := d.Validate(); err != nil {
		return err
	}
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	return d.ValidateAgainst(core.NewCategorySet(cats))
}

func (s *BudgetService) committed(ctx context.Context, action string, b core.Budget) {
	metrics.BudgetsChanged.WithLabelValues(action).Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishBudgetEvent(ctx, action, b); err != nil {
			slog.ErrorContext(ctx, "Failed to publish budget event",
				"budget_id", b.ID, "action", action, "error", err)
		}
	}

	for _, l := range s.listeners {
		l(ctx)
	}
}

// Today returns the current calendar date in UTC.
func Today() core.Date {
	return core.DateOf(time.Now().UTC())
}
