package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"expensedash/internal/cache"
	"expensedash/internal/core"
	"expensedash/internal/metrics"
	"expensedash/internal/ports"
)

// AnalyticsService loads the expense history and runs the analytics
// engine. Results are cached per reference date until the next
// Invalidate; concurrent misses for one date share a single load.
type AnalyticsService struct {
	expenses   ports.ExpenseRepository
	categories ports.CategoryReader
	cache      cache.Cache[core.ExpenseAnalytics]
	group      singleflight.Group
	generation atomic.Uint64
}

// NewAnalyticsService wires the service. c may be nil to disable caching.
func NewAnalyticsService(expenses ports.ExpenseRepository, categories ports.CategoryReader, c cache.Cache[core.ExpenseAnalytics]) *AnalyticsService {
	return &AnalyticsService{
		expenses:   expenses,
		categories: categories,
		cache:      c,
	}
}

// Compute returns analytics as of asOf.
func (s *AnalyticsService) Compute(ctx context.Context, asOf core.Date) (core.ExpenseAnalytics, error) {
	if err := asOf.Validate(); err != nil {
		return core.ExpenseAnalytics{}, core.Invalid("asOf", err)
	}
	key := asOf.String()

	if s.cache != nil {
		if a, ok := s.cache.Get(key); ok {
			metrics.AnalyticsCache.WithLabelValues("hit").Inc()
			return a, nil
		}
	}

	gen := s.generation.Load()
	v, err, shared := s.group.Do(fmt.Sprintf("%d:%s", gen, key), func() (interface{}, error) {
		metrics.AnalyticsCache.WithLabelValues("miss").Inc()
		a, err := s.load(ctx, asOf)
		if err != nil {
			return nil, err
		}
		// A mutation during the load makes the result stale for the cache,
		// but it is still a valid answer for this caller. The second check
		// catches an Invalidate that lands between the first one and Set.
		if s.cache != nil && s.generation.Load() == gen {
			s.cache.Set(key, a)
			if s.generation.Load() != gen {
				s.cache.Delete(key)
			}
		}
		return a, nil
	})
	if shared {
		metrics.AnalyticsCache.WithLabelValues("shared").Inc()
	}
	if err != nil {
		return core.ExpenseAnalytics{}, err
	}
	return v.(core.ExpenseAnalytics), nil
}

// Summary computes the dashboard headline figures as of asOf.
func (s *AnalyticsService) Summary(ctx context.Context, asOf core.Date) (core.ExpenseAnalytics, core.DashboardSummary, error) {
	a, err := s.Compute(ctx, asOf)
	if err != nil {
		return core.ExpenseAnalytics{}, core.DashboardSummary{}, err
	}
	return a, core.Summarize(a), nil
}

// Invalidate drops cached results. Register it as a ChangeListener on the
// services that mutate expenses.
func (s *AnalyticsService) Invalidate(ctx context.Context) {
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Clear()
	}
	slog.DebugContext(ctx, "Analytics cache invalidated", "component", "analytics")
}

func (s *AnalyticsService) load(ctx context.Context, asOf core.Date) (core.ExpenseAnalytics, error) {
	started := time.Now()
	defer func() { metrics.AnalyticsDuration.Observe(time.Since(started).Seconds()) }()

	var (
		expenses   []core.Expense
		categories []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.expenses.ListExpenses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.categories.ListCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.ExpenseAnalytics{}, fmt.Errorf("load analytics input: %w", err)
	}

	a, err := core.ComputeAnalytics(expenses, categories, asOf)
	if err != nil {
		return core.ExpenseAnalytics{}, fmt.Errorf("compute analytics: %w", err)
	}
	return a, nil
}
