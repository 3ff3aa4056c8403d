package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/timebank/backoffice/internal/audit"
	"github.com/timebank/backoffice/internal/config"
	"github.com/timebank/backoffice/internal/database"
	"github.com/timebank/backoffice/internal/jobs"
	"github.com/timebank/backoffice/internal/logging"
	"github.com/timebank/backoffice/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Format, cfg.Log.Level).With(slog.String("process", "worker"))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("database open", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	auditLogger := audit.NewLogger(logger)
	customers := services.NewCustomerService(db, cfg.Ledger, logger)
	ledger := services.NewLedgerService(db, cfg.Ledger, customers, auditLogger, logger)

	redisOpts := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	worker, err := jobs.NewWorker(redisOpts, ledger, cfg.Jobs.ReconcileCron, logger)
	if err != nil {
		logger.Error("worker setup", slog.Any("error", err))
		os.Exit(1)
	}

	// Reconcile once at start-up instead of waiting for the first cron tick.
	client := jobs.NewClient(redisOpts)
	if info, err := client.EnqueueReconcile(ctx, jobs.TriggerStartup); err != nil {
		logger.Warn("enqueue start-up reconciliation", slog.Any("error", err))
	} else {
		logger.Info("start-up reconciliation enqueued", slog.String("task_id", info.ID))
	}
	client.Close()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
