package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"expensedash/internal/backend"
	"expensedash/internal/cache"
	"expensedash/internal/cli"
	"expensedash/internal/core"
	apphttp "expensedash/internal/http"
	applog "expensedash/internal/log"
	"expensedash/internal/receipt"
	"expensedash/internal/services"
	"expensedash/internal/session"
)

// analyticsCacheEntries bounds the number of reference dates kept.
const analyticsCacheEntries = 32

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger, nil)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	repo := be.Repository
	// A zero TTL disables the analytics cache.
	var analyticsCache cache.Cache[core.ExpenseAnalytics]
	cacheManager := cache.NewManager()
	if cfg.AnalyticsCacheTTL > 0 {
		lru := cache.NewLRUCache[core.ExpenseAnalytics](analyticsCacheEntries, cfg.AnalyticsCacheTTL)
		cacheManager.Register(lru)
		analyticsCache = lru
	}
	cacheManager.StartCleanup(max(cfg.AnalyticsCacheTTL, time.Minute))

	analytics := services.NewAnalyticsService(repo, repo, analyticsCache)
	expenses := services.NewExpenseService(repo, repo, be.Publisher)
	budgets := services.NewBudgetService(repo, services.NewSpendingSuggester(cfg.SuggestionLimit), be.Publisher)
	expenses.OnChange(analytics.Invalidate)

	holder := session.NewHolder(session.NewRepositoryLoader(repo, analytics), services.Today)

	store, err := receipt.NewFileStore(cfg.ReceiptsDir, cfg.MaxReceiptBytes)
	if err != nil {
		logger.Error("Failed to prepare receipts directory", "error", err, "dir", cfg.ReceiptsDir)
		os.Exit(1)
	}
	extractor := receipt.NewTextExtractor(repo, receipt.NewKeywordCategorizer(receipt.DefaultRules()))

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Expenses:     expenses,
		Budgets:      budgets,
		Analytics:    analytics,
		Categories:   repo,
		Session:      holder,
		Receipts:     receipt.NewProcessor(store, extractor),
		ReceiptStore: store,
		Ready:        be.Ready,
	}, apphttp.Options{
		RateLimitRPM:    cfg.RateLimitRPM,
		MaxReceiptBytes: cfg.MaxReceiptBytes,
		Logger: applog.New(applog.Config{
			Level:     applog.ParseLevel(cfg.LogLevel),
			Component: applog.ComponentApp,
			Handler:   logger.Handler(),
		}),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	if _, _, err := holder.Refresh(ctx, services.Today()); err != nil {
		logger.Warn("Initial session load failed, will retry", "error", err)
	}
	go holder.Run(ctx, cfg.RefreshInterval)

	logger.Info("Starting dashboard server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", be.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
