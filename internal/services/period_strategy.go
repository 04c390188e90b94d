// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for budget period windows.
// Each period type (daily, weekly, monthly, yearly) has its own strategy
// that encapsulates how the current window is derived from a reference date.

package services

import (
	"fmt"
	"time"

	"expensedash/internal/core"
)

// PeriodWindower is the strategy interface for budget periods.
type PeriodWindower interface {
	// Window returns the half-open range [start, end) of the period that
	// contains asOf.
	Window(asOf core.Date) (start, end core.Date)
}

// DailyWindow covers the single day of asOf.
type DailyWindow struct{}

func (DailyWindow) Window(asOf core.Date) (core.Date, core.Date) {
	start := core.DateOf(asOf.Time)
	return start, core.Date{Time: start.AddDate(0, 0, 1)}
}

// WeeklyWindow covers Monday through Sunday.
type WeeklyWindow struct{}

func (WeeklyWindow) Window(asOf core.Date) (core.Date, core.Date) {
	day := core.DateOf(asOf.Time)
	offset := (int(day.Weekday()) + 6) % 7 // days since Monday
	start := day.AddDate(0, 0, -offset)
	return core.Date{Time: start}, core.Date{Time: start.AddDate(0, 0, 7)}
}

// MonthlyWindow covers the calendar month.
type MonthlyWindow struct{}

func (MonthlyWindow) Window(asOf core.Date) (core.Date, core.Date) {
	start := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	return core.Date{Time: start}, core.Date{Time: start.AddDate(0, 1, 0)}
}

// YearlyWindow covers the calendar year.
type YearlyWindow struct{}

func (YearlyWindow) Window(asOf core.Date) (core.Date, core.Date) {
	start := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return core.Date{Time: start}, core.Date{Time: start.AddDate(1, 0, 0)}
}

// periodStrategies maps budget periods to their window strategies.
var periodStrategies = map[core.Period]PeriodWindower{
	core.Daily:   DailyWindow{},
	core.Weekly:  WeeklyWindow{},
	core.Monthly: MonthlyWindow{},
	core.Yearly:  YearlyWindow{},
}

// GetPeriodWindower returns the strategy for period.
func GetPeriodWindower(period core.Period) (PeriodWindower, error) {
	w, ok := periodStrategies[period]
	if !ok {
		return nil, fmt.Errorf("unknown budget period: %s", period)
	}
	return w, nil
}

// InWindow reports whether d falls in [start, end).
func InWindow(d, start, end core.Date) bool {
	return !d.Before(start.Time) && d.Before(end.Time)
}
