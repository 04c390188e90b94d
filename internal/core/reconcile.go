package core

import (
	"fmt"
	"strings"
)

// ActionKind tells whether a reconciliation updated or created a budget.
type ActionKind string

const (
	ActionUpdated ActionKind = "updated"
	ActionCreated ActionKind = "created"
)

// ReconcileAction identifies the budget written by a reconciliation.
type ReconcileAction struct {
	Kind     ActionKind
	BudgetID string
}

// Reconciliation is the outcome of merging one suggestion into the active
// budget set. Budgets and Pending are new slices; the inputs are not
// modified.
type Reconciliation struct {
	Budgets      []Budget
	Pending      []Budget
	Action       ReconcileAction
	Budget       Budget // the created or updated record
	SuggestionID string
}

// ApplySuggestion merges suggestion into current.
//
// When a budget for the same category exists its amount is replaced and its
// id, category and period are kept; the suggestion's period is ignored on
// update. Otherwise a new budget is created with an id from newID and the
// suggestion's category, amount and period. In both cases the suggestion is
// removed from pending by id; a suggestion that is no longer pending still
// applies, which makes repeated application idempotent.
//
// current must not hold two budgets for one category; such input is
// rejected with ErrDuplicateBudget. newID defaults to NewID.
func ApplySuggestion(current, pending []Budget, suggestion Budget, newID func() string) (Reconciliation, error) {
	if err := suggestion.Draft().Validate(); err != nil {
		return Reconciliation{}, err
	}
	if err := CheckUniqueCategories(current); err != nil {
		return Reconciliation{}, err
	}
	if newID == nil {
		newID = NewID
	}

	budgets := make([]Budget, len(current), len(current)+1)
	copy(budgets, current)

	r := Reconciliation{SuggestionID: suggestion.ID}

	idx := -1
	for i, b := range budgets {
		if b.Category == suggestion.Category {
			idx = i
			break
		}
	}

	if idx >= 0 {
		budgets[idx].Amount = suggestion.Amount
		r.Budget = budgets[idx]
		r.Action = ReconcileAction{Kind: ActionUpdated, BudgetID: budgets[idx].ID}
	} else {
		id := newID()
		if strings.TrimSpace(id) == "" {
			return Reconciliation{}, Invalid("id", ErrEmptyID)
		}
		created := Budget{
			ID:       id,
			Category: suggestion.Category,
			Amount:   suggestion.Amount,
			Period:   suggestion.Period,
		}
		budgets = append(budgets, created)
		r.Budget = created
		r.Action = ReconcileAction{Kind: ActionCreated, BudgetID: id}
	}

	r.Budgets = budgets
	r.Pending = RemoveBudget(pending, suggestion.ID)
	return r, nil
}

// RemoveBudget returns a copy of list without the entry whose id matches.
func RemoveBudget(list []Budget, id string) []Budget {
	out := make([]Budget, 0, len(list))
	for _, b := range list {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

// CheckUniqueCategories reports ErrDuplicateBudget when two budgets share a
// category.
func CheckUniqueCategories(budgets []Budget) error {
	seen := make(map[string]string, len(budgets))
	for _, b := range budgets {
		if other, ok := seen[b.Category]; ok {
			return Invalid("category", fmt.Errorf("%w: %q held by %s and %s", ErrDuplicateBudget, b.Category, other, b.ID))
		}
		seen[b.Category] = b.ID
	}
	return nil
}

// FindBudgetByCategory returns the budget for category, if any.
func FindBudgetByCategory(budgets []Budget, category string) (Budget, bool) {
	for _, b := range budgets {
		if b.Category == category {
			return b, true
		}
	}
	return Budget{}, false
}

// ValidateSuggestions enforces the suggestion contract: every entry has an
// id, a category, a positive amount and a valid period, and no two entries
// share a category or an id.
func ValidateSuggestions(suggestions []Budget) error {
	ids := make(map[string]struct{}, len(suggestions))
	for _, s := range suggestions {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("suggestion %q: %w", s.ID, err)
		}
		if _, dup := ids[s.ID]; dup {
			return Invalid("id", fmt.Errorf("duplicate suggestion id %q", s.ID))
		}
		ids[s.ID] = struct{}{}
	}
	return CheckUniqueCategories(suggestions)
}
