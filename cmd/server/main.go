package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timebank/backoffice/docs"
	"github.com/timebank/backoffice/internal/audit"
	"github.com/timebank/backoffice/internal/config"
	"github.com/timebank/backoffice/internal/database"
	"github.com/timebank/backoffice/internal/handlers"
	"github.com/timebank/backoffice/internal/logging"
	"github.com/timebank/backoffice/internal/services"
)

// @title Bank Back-Office API
// @version 1.0
// @description Ledger, customer and staff operations for branch back-office employees
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(logger)

	docs.SwaggerInfo.Host = "localhost:" + cfg.Port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Bootstrap(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("database bootstrap", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	redisClient := database.InitRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	auditLogger := audit.NewLogger(logger)
	customerService := services.NewCustomerService(db, cfg.Ledger, logger)
	ledgerService := services.NewLedgerService(db, cfg.Ledger, customerService, auditLogger, logger)
	employeeService := services.NewEmployeeService(db, cfg.Ledger, auditLogger, logger)
	reportService := services.NewReportService(db, redisClient, cfg.Reports, cfg.Ledger, logger)
	authService := services.NewAuthService(db, redisClient, cfg.JWT, logger)

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:           authService,
		Tokens:         authService,
		Ledger:         ledgerService,
		Customers:      customerService,
		Staff:          employeeService,
		Reports:        reportService,
		Reconciler:     ledgerService,
		Reference:      services.NewReferenceService(db),
		QR:             services.NewQRService(db),
		Logger:         logger,
		Production:     cfg.IsProduction(),
		LoginRateLimit: cfg.HTTP.LoginRateLimit,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr), slog.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("error", err))
		return
	}
	logger.Info("server stopped")
}
