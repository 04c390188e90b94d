package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"expensedash/internal/core"
	"expensedash/internal/ports"
	"expensedash/internal/ports/memory"
)

var errBoom = errors.New("connection reset")

// flakyRepo wraps the memory store and fails selected operations.
type flakyRepo struct {
	*memory.Store
	failList    bool
	failCommit  bool
	failReplace bool
	listCalls   atomic.Int32
}

func newFlakyRepo() *flakyRepo {
	return &flakyRepo{Store: memory.NewSeeded()}
}

func (r *flakyRepo) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	r.listCalls.Add(1)
	if r.failList {
		return nil, core.Transport("list expenses", errBoom)
	}
	return r.Store.ListExpenses(ctx)
}

func (r *flakyRepo) CommitReconciliation(ctx context.Context, rec core.Reconciliation) error {
	if r.failCommit {
		return core.Transport("commit reconciliation", errBoom)
	}
	return r.Store.CommitReconciliation(ctx, rec)
}

func (r *flakyRepo) ReplaceSuggestions(ctx context.Context, s []core.Budget) error {
	if r.failReplace {
		return core.Transport("replace suggestions", errBoom)
	}
	return r.Store.ReplaceSuggestions(ctx, s)
}

var _ ports.Repository = (*flakyRepo)(nil)

type publishedEvent struct {
	kind, action, id string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	fail   bool
}

func (p *recordingPublisher) PublishExpenseEvent(_ context.Context, action string, e core.Expense) error {
	return p.record("expense", action, e.ID)
}

func (p *recordingPublisher) PublishBudgetEvent(_ context.Context, action string, b core.Budget) error {
	return p.record("budget", action, b.ID)
}

func (p *recordingPublisher) record(kind, action, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errBoom
	}
	p.events = append(p.events, publishedEvent{kind, action, id})
	return nil
}

func (p *recordingPublisher) Events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type fixedSuggester struct {
	out []core.Budget
	err error
}

func (s fixedSuggester) Suggest(context.Context, []core.Expense, []core.Category, core.Date) ([]core.Budget, error) {
	return s.out, s.err
}

func sequentialIDs(prefix string) func() string {
	var n atomic.Int32
	return func() string {
		return prefix + string(rune('0'+n.Add(1)))
	}
}
