package session

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"

	"expensedash/internal/core"
	"expensedash/internal/ports/memory"
	"expensedash/internal/services"
)

// gatedLoader blocks each load until released, returning one expense
// tagged with the load number.
type gatedLoader struct {
	mu    sync.Mutex
	gates []chan struct{}
	calls int
	err   error
}

func (l *gatedLoader) gate(n int) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.gates) <= n {
		l.gates = append(l.gates, make(chan struct{}))
	}
	return l.gates[n]
}

func (l *gatedLoader) load(ctx context.Context, _ core.Date) (Snapshot, error) {
	l.mu.Lock()
	n := l.calls
	l.calls++
	l.mu.Unlock()
	<-l.gate(n)
	if l.err != nil {
		return Snapshot{}, l.err
	}
	return Snapshot{Expenses: []core.Expense{{ID: string(rune('a' + n))}}}, nil
}

func today() core.Date { return core.NewDate(2024, 5, 31) }

func TestHolder_OutOfOrderRefreshKeepsNewest(t *testing.T) {
	l := &gatedLoader{}
	h := NewHolder(l.load, today)
	ctx := context.Background()

	first := make(chan bool)
	go func() {
		_, applied, _ := h.Refresh(ctx, today())
		first <- applied
	}()
	waitCalls(t, l, 1)

	second := make(chan bool)
	go func() {
		_, applied, _ := h.Refresh(ctx, today())
		second <- applied
	}()
	waitCalls(t, l, 2)

	close(l.gate(1))
	if !<-second {
		t.Fatal("newest refresh should apply")
	}
	close(l.gate(0))
	if <-first {
		t.Fatal("older refresh must be discarded")
	}

	s := h.State()
	if s.Seq != 2 || s.Expenses[0].ID != "b" || s.Loading {
		t.Errorf("state = seq %d, %+v, loading %v", s.Seq, s.Expenses, s.Loading)
	}
}

func TestHolder_EditDuringRefreshWins(t *testing.T) {
	l := &gatedLoader{}
	h := NewHolder(l.load, today)
	ctx := context.Background()

	done := make(chan bool)
	go func() {
		_, applied, _ := h.Refresh(ctx, today())
		done <- applied
	}()
	waitCalls(t, l, 1)

	h.Update(func(s State) State {
		return s.WithExpenseAdded(core.Expense{ID: "local"})
	})
	close(l.gate(0))
	if <-done {
		t.Fatal("refresh started before an edit must not overwrite it")
	}
	if s := h.State(); len(s.Expenses) != 1 || s.Expenses[0].ID != "local" {
		t.Errorf("local edit lost: %+v", s.Expenses)
	}
}

func TestHolder_RefreshError(t *testing.T) {
	l := &gatedLoader{err: errors.New("db down")}
	close(l.gate(0))
	h := NewHolder(l.load, today)

	s, applied, err := h.Refresh(context.Background(), today())
	if err == nil || applied {
		t.Fatalf("Refresh() = %v, %v", applied, err)
	}
	if s.LastError == "" || s.Loading {
		t.Errorf("state after error = %+v", s)
	}
}

func TestHolder_StateIsACopy(t *testing.T) {
	repo := memory.NewSeeded()
	analytics := services.NewAnalyticsService(repo, repo, nil)
	h := NewHolder(NewRepositoryLoader(repo, analytics), today)

	if _, applied, err := h.Refresh(context.Background(), today()); err != nil || !applied {
		t.Fatalf("Refresh() = %v, %v", applied, err)
	}
	s := h.State()
	s.Expenses[0].Description = "changed"
	if h.State().Expenses[0].Description == "changed" {
		t.Error("State() exposed internal slice")
	}
	if h.State().Analytics.TotalSpent.Cents != 157516 {
		t.Errorf("total = %d", h.State().Analytics.TotalSpent.Cents)
	}
}

func waitCalls(t *testing.T, l *gatedLoader, n int) {
	t.Helper()
	for i := 0; i < 1000000; i++ {
		l.mu.Lock()
		c := l.calls
		l.mu.Unlock()
		if c >= n {
			return
		}
		runtime.Gosched()
	}
	t.Fatalf("loader never reached %d calls", n)
}
