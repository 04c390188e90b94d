package main

import (
	"context"
	"errors"
	"os"
	"time"

	"expensedash/internal/amqp"
	"expensedash/internal/cli"
	"expensedash/internal/config"
	"expensedash/internal/ports"
	gsheet "expensedash/internal/sheets/google"
	"expensedash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting dashboard-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	// Only the sqlite backend outlives the server process, so only it can
	// be backfilled from here.
	var (
		expenses ports.ExpenseRepository
		closers  []func() error
	)
	if cfg.DataBackend == "sqlite" {
		repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		expenses = repo
		closers = append(closers, repo.Close)
	}
	exportWorker := worker.NewExportWorker(sheetsClient, expenses)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Performing startup backfill...")
	if err := exportWorker.Backfill(ctx); err != nil {
		// Not fatal; events keep the sheet current from here on.
		logger.Error("Startup backfill failed", "error", err)
	}

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		if err := amqpClient.Consume(ctx, exportWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	<-consumed

	closers = append(closers, amqpClient.Close)
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("Cleanup error", "error", err)
		}
	}
	logger.Info("Worker stopped")
}
