package services

import (
	"context"
	"sort"
	"time"

	"expensedash/internal/core"
)

const (
	// suggestionMonths is the trailing window, asOf's month included.
	suggestionMonths = 3
	// suggestionHeadroom is the percentage added on top of the average.
	suggestionHeadroom = 10
	// suggestionStep rounds suggestions up to whole multiples, in cents.
	suggestionStep = 1000
)

// SpendingSuggester proposes a monthly budget per category from recent
// spending: the monthly average over the trailing window plus headroom,
// rounded up to a step. Categories without spending in the window get no
// suggestion.
type SpendingSuggester struct {
	limit int
}

// NewSpendingSuggester returns a suggester capped at limit suggestions; a
// non-positive limit means no cap.
func NewSpendingSuggester(limit int) *SpendingSuggester {
	return &SpendingSuggester{limit: limit}
}

func (s *SpendingSuggester) Suggest(ctx context.Context, expenses []core.Expense, categories []core.Category, asOf core.Date) ([]core.Budget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := asOf.Validate(); err != nil {
		return nil, core.Invalid("asOf", err)
	}

	end := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	start := end.AddDate(0, -suggestionMonths, 0)

	spent := make(map[string]int64)
	for _, e := range expenses {
		if InWindow(e.Date, core.Date{Time: start}, core.Date{Time: end}) {
			spent[e.Category] += e.Amount.Cents
		}
	}

	var out []core.Budget
	for _, c := range categories {
		total := spent[c.Name]
		if total <= 0 {
			continue
		}
		out = append(out, core.Budget{
			ID:       "suggested-" + c.ID,
			Category: c.Name,
			Amount:   core.Money{Cents: suggestedAmount(total)},
			Period:   core.Monthly,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	if s.limit > 0 && len(out) > s.limit {
		out = out[:s.limit]
	}
	return out, nil
}

func suggestedAmount(totalCents int64) int64 {
	// ceil(total / months * (100 + headroom) / 100) on integers
	scaled := totalCents * (100 + suggestionHeadroom)
	div := int64(suggestionMonths * 100)
	avg := (scaled + div - 1) / div
	rounded := (avg + suggestionStep - 1) / suggestionStep * suggestionStep
	if rounded < suggestionStep {
		rounded = suggestionStep
	}
	return rounded
}
