package receipt

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"expensedash/internal/core"
	"expensedash/internal/metrics"
	"expensedash/internal/ports"
)

// Result is a processed upload: what was read and the expense it suggests.
type Result struct {
	URL   string
	Data  core.ReceiptData
	Draft core.ExpenseDraft
}

// Processor stores an upload and runs the extractor on it. It never saves
// an expense; the caller reviews the draft first.
type Processor struct {
	store     *FileStore
	extractor ports.ReceiptExtractor
}

func NewProcessor(store *FileStore, extractor ports.ReceiptExtractor) *Processor {
	return &Processor{store: store, extractor: extractor}
}

func (p *Processor) Process(ctx context.Context, name string, r io.Reader) (Result, error) {
	url, data, err := p.store.Save(name, r)
	if err != nil {
		metrics.ReceiptsProcessed.WithLabelValues("rejected").Inc()
		return Result{}, err
	}

	rd, err := p.extractor.Extract(ctx, name, data)
	if err != nil {
		metrics.ReceiptsProcessed.WithLabelValues("failed").Inc()
		slog.WarnContext(ctx, "Receipt extraction failed",
			"component", "receipt", "url", url, "error", err)
		if rmErr := p.store.Remove(url); rmErr != nil {
			slog.ErrorContext(ctx, "Could not remove rejected receipt",
				"component", "receipt", "url", url, "error", rmErr)
		}
		return Result{}, fmt.Errorf("extract receipt: %w", err)
	}

	metrics.ReceiptsProcessed.WithLabelValues("ok").Inc()
	slog.InfoContext(ctx, "Receipt processed",
		"component", "receipt",
		"url", url,
		"vendor", rd.Vendor,
		"amount_cents", rd.Amount.Cents,
		"items", len(rd.Items))
	return Result{URL: url, Data: rd, Draft: rd.Draft(url)}, nil
}
