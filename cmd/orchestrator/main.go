package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/checkoutkit/paypal-orchestrator/internal/application/services"
	"github.com/checkoutkit/paypal-orchestrator/internal/config"
	"github.com/checkoutkit/paypal-orchestrator/internal/infrastructure/paypal"
	"github.com/checkoutkit/paypal-orchestrator/internal/infrastructure/persistence/memory"
	"github.com/checkoutkit/paypal-orchestrator/internal/infrastructure/persistence/postgres"
	"github.com/checkoutkit/paypal-orchestrator/internal/interfaces/rest/handlers"
	"github.com/checkoutkit/paypal-orchestrator/internal/interfaces/rest/middleware"
	"github.com/checkoutkit/paypal-orchestrator/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payment orchestrator",
		"port", cfg.Server.Port,
		"sandbox", cfg.PayPal.Sandbox(),
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	stateRepo := postgres.NewStateRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	history := postgres.NewHistoryRecorder(db, logger)
	events := memory.NewEventPublisher()

	client := paypal.NewClient(cfg.PayPal)
	gateway := paypal.NewRetryGateway(client, cfg.Retry)

	payments := services.NewPaymentOrchestrator(
		stateRepo, ledgerRepo, history, events, gateway, cfg.PayPal, logger)
	subscriptions := services.NewSubscriptionOrchestrator(
		stateRepo, planRepo, history, events, gateway, cfg.PayPal, logger)

	h := handlers.NewHandlers(payments, subscriptions, ledgerRepo, logger)

	mux := http.NewServeMux()
	h.Register(mux)

	handler := middleware.Recovery(logger)(mux)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweeper := worker.NewCaptureSweeper(stateRepo, payments, cfg.Worker, logger)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go sweeper.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
