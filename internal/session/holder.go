package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"expensedash/internal/core"
	"expensedash/internal/metrics"
	"expensedash/internal/ports"
)

// Loader produces a full snapshot as of a reference date.
type Loader func(ctx context.Context, asOf core.Date) (Snapshot, error)

// AnalyticsComputer is the part of the analytics service the loader needs.
type AnalyticsComputer interface {
	Compute(ctx context.Context, asOf core.Date) (core.ExpenseAnalytics, error)
}

// NewRepositoryLoader loads all collections concurrently from repo and the
// analytics from analytics.
func NewRepositoryLoader(repo ports.Repository, analytics AnalyticsComputer) Loader {
	return func(ctx context.Context, asOf core.Date) (Snapshot, error) {
		var snap Snapshot
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			snap.Expenses, err = repo.ListExpenses(gctx)
			return err
		})
		g.Go(func() (err error) {
			snap.Categories, err = repo.ListCategories(gctx)
			return err
		})
		g.Go(func() (err error) {
			snap.Budgets, err = repo.ListBudgets(gctx)
			return err
		})
		g.Go(func() (err error) {
			snap.Suggestions, err = repo.ListSuggestions(gctx)
			return err
		})
		g.Go(func() (err error) {
			snap.Analytics, err = analytics.Compute(gctx, asOf)
			return err
		})
		if err := g.Wait(); err != nil {
			return Snapshot{}, err
		}
		return snap, nil
	}
}

// Holder is the single owner of the session state. Every change goes
// through it under one lock; readers receive copies.
type Holder struct {
	mu      sync.Mutex
	state   State
	nextSeq uint64
	edits   uint64 // local changes applied through Update
	load    Loader
	today   func() core.Date
}

func NewHolder(load Loader, today func() core.Date) *Holder {
	return &Holder{load: load, today: today}
}

// State returns a copy of the current state.
func (h *Holder) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.clone()
}

// Update applies a transition and returns the resulting state.
func (h *Holder) Update(f func(State) State) State {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = f(h.state)
	h.edits++
	return h.state.clone()
}

// Refresh loads a new snapshot. The result is committed only when no
// later refresh has committed and no change happened while loading;
// otherwise it is discarded and applied reports false.
func (h *Holder) Refresh(ctx context.Context, asOf core.Date) (state State, applied bool, err error) {
	h.mu.Lock()
	h.nextSeq++
	seq := h.nextSeq
	startEdits := h.edits
	h.state.Loading = true
	h.mu.Unlock()

	snap, loadErr := h.load(ctx, asOf)

	h.mu.Lock()
	defer h.mu.Unlock()
	latest := seq == h.nextSeq
	if latest {
		h.state.Loading = false
	}

	if loadErr != nil {
		if latest {
			h.state.LastError = loadErr.Error()
		}
		metrics.SessionRefreshes.WithLabelValues("error").Inc()
		slog.ErrorContext(ctx, "Session refresh failed",
			"component", "session", "seq", seq, "error", loadErr)
		return h.state.clone(), false, loadErr
	}

	if h.edits != startEdits {
		metrics.SessionRefreshes.WithLabelValues("stale").Inc()
		slog.DebugContext(ctx, "Discarding stale session refresh",
			"component", "session", "seq", seq)
		return h.state.clone(), false, nil
	}
	next, ok := h.state.ApplySnapshot(seq, snap)
	if !ok {
		metrics.SessionRefreshes.WithLabelValues("stale").Inc()
		return h.state.clone(), false, nil
	}
	next.Loading = !latest
	h.state = next
	metrics.SessionRefreshes.WithLabelValues("applied").Inc()
	return h.state.clone(), true, nil
}

// Run refreshes every interval until ctx is done.
func (h *Holder) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := h.Refresh(ctx, h.today()); err != nil && ctx.Err() == nil {
				slog.WarnContext(ctx, "Periodic session refresh failed",
					"component", "session", "error", err)
			}
		}
	}
}
