package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/application/services"
	"github.com/minhlq/charterdesk/internal/config"
	"github.com/minhlq/charterdesk/internal/infrastructure/gateway"
	"github.com/minhlq/charterdesk/internal/infrastructure/notify"
	"github.com/minhlq/charterdesk/internal/infrastructure/persistence/postgres"
	"github.com/minhlq/charterdesk/internal/interfaces/rest/handlers"
	"github.com/minhlq/charterdesk/internal/interfaces/rest/middleware"
	"github.com/minhlq/charterdesk/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting charterdesk service",
		"port", cfg.Server.Port,
		"env", cfg.Primary.Env,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	coordinator := postgres.NewTransactionCoordinator(db)
	gateways := gateway.NewRegistry(cfg)

	var notifier application.Notifier
	if cfg.Notifier.Endpoint != "" {
		notifier = notify.NewEmailNotifier(cfg.Notifier.Endpoint, logger)
	}

	bookingService := services.NewBookingService(coordinator, logger)
	paymentService := services.NewPaymentService(
		coordinator,
		gateways,
		cfg.Payment.ReturnURL,
		cfg.Payment.PendingTTL,
		logger,
	)
	reconcileService := services.NewReconcileService(coordinator, gateways, notifier, logger)
	invoiceService := services.NewInvoiceService(coordinator, logger)

	h := handlers.NewHandlers(
		bookingService,
		paymentService,
		reconcileService,
		invoiceService,
		logger,
	)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux, middleware.Auth(cfg.Auth.JWTSecret), !cfg.Primary.IsProduction())

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

	expiryWorker := worker.NewExpiryWorker(
		coordinator,
		cfg.Worker.Interval,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go expiryWorker.Start(workerCtx)

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
