package core

import (
	"math"
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	expenses := []Expense{
		exp("1", 20000, NewDate(2024, 4, 12), "Housing"),
		exp("2", 10000, NewDate(2024, 5, 3), "Housing"),
		exp("3", 5000, NewDate(2024, 5, 8), "Entertainment"),
	}
	a, err := ComputeAnalytics(expenses, fixtureCategories(), NewDate(2024, 5, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := Summarize(a)

	if s.TotalSpent.Cents != 35000 {
		t.Fatalf("total = %d", s.TotalSpent.Cents)
	}
	if s.TopCategory == nil || s.TopCategory.Category != "Housing" {
		t.Fatalf("top category = %+v", s.TopCategory)
	}
	if s.CurrentMonth.Cents != 15000 || s.PreviousMonth.Cents != 20000 {
		t.Fatalf("current=%d previous=%d", s.CurrentMonth.Cents, s.PreviousMonth.Cents)
	}
	if s.MonthlyChangePercent != -25 {
		t.Fatalf("change = %v, want -25", s.MonthlyChangePercent)
	}
	// 150.00 over 10 days of a 31 day month
	if s.ProjectedMonth.Cents != 46500 {
		t.Fatalf("projected = %d, want 46500", s.ProjectedMonth.Cents)
	}
	if s.SavingsOpportunity.Cents != 2250 {
		t.Fatalf("savings = %d, want 2250", s.SavingsOpportunity.Cents)
	}
}

func TestSummarizeNoHistory(t *testing.T) {
	a, err := ComputeAnalytics(nil, nil, NewDate(2024, 1, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := Summarize(a)
	if s.TopCategory != nil {
		t.Fatalf("expected no top category, got %+v", s.TopCategory)
	}
	if s.MonthlyChangePercent != 0 || s.ProjectedMonth.Cents != 0 || s.SavingsOpportunity.Cents != 0 {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}

func TestSummarizeLargeMonthDoesNotWrap(t *testing.T) {
	big := Money{Cents: math.MaxInt64 / 4}
	a := ExpenseAnalytics{
		TotalSpent: big,
		AsOf:       NewDate(2024, 5, 1),
		MonthlySpendings: []MonthlySpending{
			{Year: 2024, Month: time.May, Amount: big},
		},
	}
	s := Summarize(a)
	if s.ProjectedMonth.Cents != math.MaxInt64 {
		t.Errorf("projected = %d, want saturation at %d", s.ProjectedMonth.Cents, int64(math.MaxInt64))
	}
	if want := big.Cents / 100 * savingsShare; s.SavingsOpportunity.Cents < want || s.SavingsOpportunity.Cents <= 0 {
		t.Errorf("savings = %d, want about %d", s.SavingsOpportunity.Cents, want)
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		num, den int64
		want     int64
	}{
		{"projection truncates", 15000, 31, 10, 46500},
		{"fraction truncates", 999, 15, 100, 149},
		{"negative", -1000, 3, 2, -1500},
		{"saturates low", math.MinInt64 / 2, 3, 1, math.MinInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scale(Money{Cents: tt.cents}, tt.num, tt.den); got.Cents != tt.want {
				t.Errorf("scale(%d, %d, %d) = %d, want %d", tt.cents, tt.num, tt.den, got.Cents, tt.want)
			}
		})
	}
}

func TestReceiptDraft(t *testing.T) {
	r := ReceiptData{
		Amount:   Money{Cents: 2345},
		Date:     NewDate(2024, 5, 10),
		Vendor:   "  Local Store ",
		Category: "Food & Dining",
		Items: []ReceiptItem{
			{Description: "Bread", Amount: Money{Cents: 345}},
			{Description: "Cheese", Amount: Money{Cents: 2000}},
		},
	}
	d := r.Draft("/receipts/x.txt")
	if d.Description != "Local Store" || d.Amount.Cents != 2345 || d.Category != "Food & Dining" || d.ReceiptURL != "/receipts/x.txt" {
		t.Fatalf("unexpected draft %+v", d)
	}
	if r.ItemsTotal().Cents != 2345 {
		t.Fatalf("items total = %d", r.ItemsTotal().Cents)
	}
}
