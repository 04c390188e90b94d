package core

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary holds the headline figures shown above the charts.
type DashboardSummary struct {
	TotalSpent           Money
	TopCategory          *CategoryTotal
	CurrentMonth         Money
	PreviousMonth        Money
	MonthlyChangePercent float64 // 0 when the previous month has no spend
	ProjectedMonth       Money   // current month extrapolated at its daily pace
	SavingsOpportunity   Money   // share of current month spend deemed avoidable
}

// savingsShare is the fraction of monthly spend reported as a savings
// opportunity.
const savingsShare = 15

// Summarize derives the headline figures from analytics computed for the
// same asOf date.
func Summarize(a ExpenseAnalytics) DashboardSummary {
	s := DashboardSummary{TotalSpent: a.TotalSpent}
	if len(a.CategoryTotals) > 0 {
		top := a.CategoryTotals[0]
		s.TopCategory = &top
	}

	if a.AsOf.IsZero() {
		return s
	}
	year, month := a.AsOf.Year(), a.AsOf.Month()
	if cur, ok := a.Month(year, month); ok {
		s.CurrentMonth = cur.Amount
	}
	prevYear, prevMonth := year, month-1
	if prevMonth < time.January {
		prevMonth = time.December
		prevYear--
	}
	if prev, ok := a.Month(prevYear, prevMonth); ok {
		s.PreviousMonth = prev.Amount
	}

	if s.PreviousMonth.Cents > 0 {
		s.MonthlyChangePercent = Percent(s.CurrentMonth.Sub(s.PreviousMonth), s.PreviousMonth)
	}

	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	elapsed := a.AsOf.Day()
	s.ProjectedMonth = scale(s.CurrentMonth, int64(daysInMonth), int64(elapsed))
	s.SavingsOpportunity = scale(s.CurrentMonth, savingsShare, 100)
	return s
}

// scale returns m*num/den truncated to whole cents, saturating at the
// int64 range instead of wrapping.
func scale(m Money, num, den int64) Money {
	v := decimal.NewFromInt(m.Cents).Mul(decimal.NewFromInt(num)).Div(decimal.NewFromInt(den)).Truncate(0)
	switch {
	case v.GreaterThan(decimal.NewFromInt(math.MaxInt64)):
		return Money{Cents: math.MaxInt64}
	case v.LessThan(decimal.NewFromInt(math.MinInt64)):
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: v.IntPart()}
}
