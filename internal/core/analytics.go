package core

import (
	"fmt"
	"sort"
	"time"
)

const (
	// HorizonMonths is the number of trailing calendar months reported in
	// the monthly series.
	HorizonMonths = 12

	// RecentLimit is the number of expenses in RecentTransactions.
	RecentLimit = 5
)

// MonthlySpending is the spend for one calendar month.
type MonthlySpending struct {
	Year   int
	Month  time.Month
	Label  string // e.g. "May 2024"
	Amount Money
}

// CategoryTotal is the spend for one category.
type CategoryTotal struct {
	Category   string
	Amount     Money
	Color      string
	Percentage float64 // 0..100
}

// ExpenseAnalytics is derived from the expense list on every request and
// never persisted.
type ExpenseAnalytics struct {
	AsOf               Date
	TotalSpent         Money
	MonthlySpendings   []MonthlySpending
	CategoryTotals     []CategoryTotal
	RecentTransactions []Expense
}

// ComputeAnalytics aggregates expenses into totals, a zero-filled trailing
// twelve month series ending at asOf's month, per-category totals and the
// most recent transactions.
//
// The result depends only on its arguments. Category totals are ordered by
// amount descending then name; recent transactions by date descending with
// ties kept in input order. Expenses outside the monthly horizon still count
// toward TotalSpent and CategoryTotals.
//
// An expense with a non-positive amount or a zero date is rejected with a
// ValidationError instead of being coerced.
func ComputeAnalytics(expenses []Expense, categories []Category, asOf Date) (ExpenseAnalytics, error) {
	if err := asOf.Validate(); err != nil {
		return ExpenseAnalytics{}, Invalid("asOf", err)
	}
	for _, e := range expenses {
		if err := e.Amount.Validate(); err != nil {
			return ExpenseAnalytics{}, Invalid(fmt.Sprintf("expense %s amount", e.ID), err)
		}
		if err := e.Date.Validate(); err != nil {
			return ExpenseAnalytics{}, Invalid(fmt.Sprintf("expense %s date", e.ID), err)
		}
	}

	cats := NewCategorySet(categories)

	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}

	return ExpenseAnalytics{
		AsOf:               asOf,
		TotalSpent:         total,
		MonthlySpendings:   monthlySeries(expenses, asOf),
		CategoryTotals:     categoryTotals(expenses, cats, total),
		RecentTransactions: recent(expenses, RecentLimit),
	}, nil
}

func monthIndex(year int, month time.Month) int {
	return year*12 + int(month) - 1
}

func monthlySeries(expenses []Expense, asOf Date) []MonthlySpending {
	last := monthIndex(asOf.Year(), asOf.Month())
	first := last - HorizonMonths + 1

	series := make([]MonthlySpending, HorizonMonths)
	for i := range series {
		idx := first + i
		year, month := idx/12, time.Month(idx%12+1)
		series[i] = MonthlySpending{
			Year:  year,
			Month: month,
			Label: fmt.Sprintf("%s %d", month.String()[:3], year),
		}
	}

	for _, e := range expenses {
		idx := monthIndex(e.Date.Year(), e.Date.Month())
		if idx < first || idx > last {
			continue
		}
		series[idx-first].Amount = series[idx-first].Amount.Add(e.Amount)
	}
	return series
}

func categoryTotals(expenses []Expense, cats CategorySet, total Money) []CategoryTotal {
	sums := make(map[string]Money)
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}

	out := make([]CategoryTotal, 0, len(sums))
	for name, amount := range sums {
		out = append(out, CategoryTotal{
			Category:   name,
			Amount:     amount,
			Color:      cats.Color(name),
			Percentage: Percent(amount, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func recent(expenses []Expense, n int) []Expense {
	sorted := make([]Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date.Time)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Month returns the bucket for year/month, if inside the series.
func (a ExpenseAnalytics) Month(year int, month time.Month) (MonthlySpending, bool) {
	for _, m := range a.MonthlySpendings {
		if m.Year == year && m.Month == month {
			return m, true
		}
	}
	return MonthlySpending{}, false
}
