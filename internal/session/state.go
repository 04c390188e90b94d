// Package session holds the dashboard's view of the data: the last loaded
// snapshot plus the local mutations applied since.
package session

import (
	"slices"

	"expensedash/internal/core"
)

// Snapshot is one consistent load of everything the dashboard shows.
type Snapshot struct {
	Expenses    []core.Expense
	Categories  []core.Category
	Budgets     []core.Budget
	Suggestions []core.Budget
	Analytics   core.ExpenseAnalytics
}

// State is an immutable value. Transitions return a new State and never
// modify the receiver's slices.
type State struct {
	Snapshot
	Loading   bool
	LastError string
	Seq       uint64 // sequence number of the last applied snapshot
	Version   uint64 // bumped by every change
}

// ApplySnapshot installs snap if seq is newer than the one already
// applied. It reports whether the snapshot was taken.
func (s State) ApplySnapshot(seq uint64, snap Snapshot) (State, bool) {
	if seq <= s.Seq {
		return s, false
	}
	next := State{
		Snapshot: cloneSnapshot(snap),
		Seq:      seq,
		Version:  s.Version + 1,
	}
	return next, true
}

// WithExpenseAdded puts e first, matching the repository order.
func (s State) WithExpenseAdded(e core.Expense) State {
	next := s.clone()
	next.Expenses = append([]core.Expense{e}, next.Expenses...)
	return next.changed()
}

// WithExpenseUpdated replaces the expense with e's id. It reports false
// and leaves s untouched when no such expense is loaded.
func (s State) WithExpenseUpdated(e core.Expense) (State, bool) {
	i := slices.IndexFunc(s.Expenses, func(x core.Expense) bool { return x.ID == e.ID })
	if i < 0 {
		return s, false
	}
	next := s.clone()
	next.Expenses[i] = e
	return next.changed(), true
}

func (s State) WithExpenseRemoved(id string) (State, bool) {
	i := slices.IndexFunc(s.Expenses, func(x core.Expense) bool { return x.ID == id })
	if i < 0 {
		return s, false
	}
	next := s.clone()
	next.Expenses = slices.Delete(next.Expenses, i, i+1)
	return next.changed(), true
}

func (s State) WithBudgets(budgets []core.Budget) State {
	next := s.clone()
	next.Budgets = slices.Clone(budgets)
	return next.changed()
}

func (s State) WithSuggestions(suggestions []core.Budget) State {
	next := s.clone()
	next.Suggestions = slices.Clone(suggestions)
	return next.changed()
}

// WithReconciliation takes the budgets and pending set produced by an
// applied suggestion.
func (s State) WithReconciliation(r core.Reconciliation) State {
	next := s.clone()
	next.Budgets = slices.Clone(r.Budgets)
	next.Suggestions = slices.Clone(r.Pending)
	return next.changed()
}

// changed bumps the version and recomputes analytics for the loaded
// reference date. On failure the previous analytics are kept.
func (s State) changed() State {
	s.Version++
	if !s.Analytics.AsOf.IsZero() {
		if a, err := core.ComputeAnalytics(s.Expenses, s.Categories, s.Analytics.AsOf); err == nil {
			s.Analytics = a
		}
	}
	return s
}

func (s State) clone() State {
	s.Snapshot = cloneSnapshot(s.Snapshot)
	return s
}

func cloneSnapshot(in Snapshot) Snapshot {
	return Snapshot{
		Expenses:    slices.Clone(in.Expenses),
		Categories:  slices.Clone(in.Categories),
		Budgets:     slices.Clone(in.Budgets),
		Suggestions: slices.Clone(in.Suggestions),
		Analytics: core.ExpenseAnalytics{
			AsOf:               in.Analytics.AsOf,
			TotalSpent:         in.Analytics.TotalSpent,
			MonthlySpendings:   slices.Clone(in.Analytics.MonthlySpendings),
			CategoryTotals:     slices.Clone(in.Analytics.CategoryTotals),
			RecentTransactions: slices.Clone(in.Analytics.RecentTransactions),
		},
	}
}
