package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expensedash/internal/core"
)

// Event kinds.
const (
	KindExpense = "expense"
	KindBudget  = "budget"
)

// ErrMalformedEvent marks an event that can never be processed.
var ErrMalformedEvent = errors.New("malformed event")

// ExpensePayload is the wire form of an expense.
type ExpensePayload struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	ReceiptURL  string  `json:"receiptUrl,omitempty"`
}

// BudgetPayload is the wire form of a budget.
type BudgetPayload struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Period   string  `json:"period"`
}

// ChangeEvent announces a committed change. Deletions carry only the id.
// Seq increases per publisher and lets consumers drop out-of-order updates.
type ChangeEvent struct {
	Kind      string          `json:"kind"`
	Action    string          `json:"action"`
	ID        string          `json:"id"`
	Seq       uint64          `json:"seq"`
	Expense   *ExpensePayload `json:"expense,omitempty"`
	Budget    *BudgetPayload  `json:"budget,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewExpenseEvent(action string, e core.Expense, seq uint64) ChangeEvent {
	ev := ChangeEvent{Kind: KindExpense, Action: action, ID: e.ID, Seq: seq, Timestamp: time.Now().UTC()}
	if e.Date.IsZero() {
		return ev
	}
	ev.Expense = &ExpensePayload{
		ID:          e.ID,
		Amount:      e.Amount.Float(),
		Date:        e.Date.String(),
		Category:    e.Category,
		Description: e.Description,
		ReceiptURL:  e.ReceiptURL,
	}
	return ev
}

func NewBudgetEvent(action string, b core.Budget, seq uint64) ChangeEvent {
	ev := ChangeEvent{Kind: KindBudget, Action: action, ID: b.ID, Seq: seq, Timestamp: time.Now().UTC()}
	if b.Category == "" {
		return ev
	}
	ev.Budget = &BudgetPayload{
		ID:       b.ID,
		Category: b.Category,
		Amount:   b.Amount.Float(),
		Period:   string(b.Period),
	}
	return ev
}

func (m ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeEventFromJSON decodes and checks an event. Any problem is reported
// as ErrMalformedEvent.
func ChangeEventFromJSON(data []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ChangeEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.ID == "" || (ev.Kind != KindExpense && ev.Kind != KindBudget) {
		return ChangeEvent{}, fmt.Errorf("%w: kind %q id %q", ErrMalformedEvent, ev.Kind, ev.ID)
	}
	return ev, nil
}

// ToExpense converts the payload back into a domain expense.
func (p ExpensePayload) ToExpense() (core.Expense, error) {
	d, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return core.Expense{
		ID:          p.ID,
		Amount:      core.MoneyFromFloat(p.Amount),
		Date:        d,
		Category:    p.Category,
		Description: p.Description,
		ReceiptURL:  p.ReceiptURL,
	}, nil
}
