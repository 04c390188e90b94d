package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expensedash/internal/amqp"
	"expensedash/internal/core"
	"expensedash/internal/metrics"
	"expensedash/internal/ports"
)

// Exporter mirrors expenses into an external sheet.
type Exporter interface {
	UpsertExpense(ctx context.Context, e core.Expense, seq uint64) error
	DeleteExpense(ctx context.Context, id string, seq uint64) error
}

// ExportWorker applies expense change events to the exporter.
type ExportWorker struct {
	exporter Exporter
	expenses ports.ExpenseRepository
}

// NewExportWorker wires the worker. expenses is only needed for Backfill
// and may be nil.
func NewExportWorker(exporter Exporter, expenses ports.ExpenseRepository) *ExportWorker {
	return &ExportWorker{exporter: exporter, expenses: expenses}
}

// HandleEvent processes one change event. Budget events are ignored.
// Events that can never be exported are reported as amqp.ErrMalformedEvent
// so they are dropped instead of requeued.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev amqp.ChangeEvent) error {
	if ev.Kind != amqp.KindExpense {
		slog.DebugContext(ctx, "Ignoring non-expense event", "kind", ev.Kind, "id", ev.ID)
		return nil
	}

	slog.InfoContext(ctx, "Processing expense event",
		"expense_id", ev.ID,
		"action", ev.Action,
		"seq", ev.Seq)

	var err error
	switch ev.Action {
	case ports.ActionCreated, ports.ActionUpdated:
		if ev.Expense == nil {
			err = fmt.Errorf("%w: %s event without payload", amqp.ErrMalformedEvent, ev.Action)
			break
		}
		var e core.Expense
		if e, err = ev.Expense.ToExpense(); err == nil {
			err = w.exporter.UpsertExpense(ctx, e, ev.Seq)
		}
	case ports.ActionDeleted:
		err = w.exporter.DeleteExpense(ctx, ev.ID, ev.Seq)
	default:
		err = fmt.Errorf("%w: unknown action %q", amqp.ErrMalformedEvent, ev.Action)
	}

	if err != nil {
		metrics.EventsExported.WithLabelValues("error").Inc()
		return fmt.Errorf("export expense %s: %w", ev.ID, err)
	}
	metrics.EventsExported.WithLabelValues("ok").Inc()
	return nil
}

// Backfill exports every stored expense the sheet does not know yet. It
// uses seq 0, so rows already written by events are left alone.
func (w *ExportWorker) Backfill(ctx context.Context) error {
	if w.expenses == nil {
		return nil
	}
	list, err := w.expenses.ListExpenses(ctx)
	if err != nil {
		return fmt.Errorf("list expenses for backfill: %w", err)
	}

	failed := 0
	for _, e := range list {
		if err := w.exporter.UpsertExpense(ctx, e, 0); err != nil {
			slog.ErrorContext(ctx, "Failed to backfill expense", "expense_id", e.ID, "error", err)
			failed++
		}
	}
	slog.InfoContext(ctx, "Startup backfill completed",
		"total", len(list),
		"errors", failed)
	return nil
}
