package services

import (
	"context"
	"errors"
	"testing"

	"expensedash/internal/core"
	"expensedash/internal/ports"
)

func validDraft() core.ExpenseDraft {
	return core.ExpenseDraft{
		Amount:      core.Money{Cents: 1250},
		Date:        core.NewDate(2024, 5, 11),
		Category:    "Food & Dining",
		Description: "Lunch",
	}
}

func TestExpenseService_Create(t *testing.T) {
	repo := newFlakyRepo()
	pub := &recordingPublisher{}
	svc := NewExpenseService(repo, repo, pub)
	svc.newID = func() string { return "new-1" }

	notified := 0
	svc.OnChange(func(context.Context) { notified++ })

	e, err := svc.Create(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.ID != "new-1" || e.Description != "Lunch" {
		t.Errorf("Create() = %+v", e)
	}

	list, _ := svc.List(context.Background())
	if len(list) != 9 || list[0].ID != "new-1" {
		t.Errorf("new expense should be listed first, got %d items", len(list))
	}
	if notified != 1 {
		t.Errorf("listener called %d times, want 1", notified)
	}
	if ev := pub.Events(); len(ev) != 1 || ev[0] != (publishedEvent{"expense", ports.ActionCreated, "new-1"}) {
		t.Errorf("unexpected events %+v", ev)
	}
}

func TestExpenseService_CreateRejectsUnknownCategory(t *testing.T) {
	repo := newFlakyRepo()
	svc := NewExpenseService(repo, repo, nil)
	d := validDraft()
	d.Category = "Groceries"

	_, err := svc.Create(context.Background(), d)
	if !errors.Is(err, core.ErrUnknownCategory) || !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected unknown category validation error, got %v", err)
	}
	list, _ := svc.List(context.Background())
	if len(list) != 8 {
		t.Errorf("rejected expense must not be stored")
	}
}

func TestExpenseService_PublishFailureDoesNotFail(t *testing.T) {
	repo := newFlakyRepo()
	svc := NewExpenseService(repo, repo, &recordingPublisher{fail: true})
	if _, err := svc.Create(context.Background(), validDraft()); err != nil {
		t.Fatalf("publish failure must not fail the request: %v", err)
	}
}

func TestExpenseService_UpdateAndDelete(t *testing.T) {
	repo := newFlakyRepo()
	svc := NewExpenseService(repo, repo, nil)
	ctx := context.Background()

	e, _ := svc.Get(ctx, "2")
	e.Amount = core.Money{Cents: 4000}
	if _, err := svc.Update(ctx, e); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := svc.Get(ctx, "2")
	if got.Amount.Cents != 4000 {
		t.Errorf("Update() not applied: %+v", got)
	}

	missing := e
	missing.ID = "404"
	if _, err := svc.Update(ctx, missing); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want not found", err)
	}
	if _, err := svc.Update(ctx, core.Expense{}); !errors.Is(err, core.ErrEmptyID) {
		t.Errorf("Update(no id) error = %v", err)
	}

	if err := svc.Delete(ctx, "2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, "2"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}
}

func TestExpenseService_TransportErrorIsClassified(t *testing.T) {
	repo := newFlakyRepo()
	repo.failList = true
	svc := NewExpenseService(repo, repo, nil)

	_, err := svc.List(context.Background())
	if !errors.Is(err, core.ErrTransport) || core.Kind(err) != "transport" {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestExpenseService_ListByCategory(t *testing.T) {
	repo := newFlakyRepo()
	svc := NewExpenseService(repo, repo, nil)
	ctx := context.Background()

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := 0
	for _, e := range all {
		if e.Category == "Transportation" {
			want++
		}
	}

	got, err := svc.ListByCategory(ctx, "Transportation")
	if err != nil {
		t.Fatalf("ListByCategory() error = %v", err)
	}
	if len(got) != want || want == 0 {
		t.Errorf("ListByCategory() len = %d, want %d", len(got), want)
	}

	if _, err := svc.ListByCategory(ctx, "Yachts"); !errors.Is(err, core.ErrUnknownCategory) || !errors.Is(err, core.ErrValidation) {
		t.Errorf("unknown category error = %v", err)
	}
}
