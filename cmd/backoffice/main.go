package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/branchday-backoffice/internal/backoffice"
	"github.com/branchday-backoffice/internal/backoffice/outbox_poller"
	"github.com/branchday-backoffice/internal/backoffice/service"
	"github.com/branchday-backoffice/internal/config"
	"github.com/branchday-backoffice/internal/data/postgres"
	"github.com/branchday-backoffice/internal/logger"
	"github.com/branchday-backoffice/internal/platform/messaging/producers"
	"github.com/branchday-backoffice/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("backoffice")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Back Office",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for audit facts
	auditProducer, err := producers.NewAuditFactProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize audit fact Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	dayRepo := postgres.NewDayRepository(log, postgresDB)
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	txRepo := postgres.NewTransactionRepository(log, postgresDB)
	handoffRepo := postgres.NewHandoffRepository(log, postgresDB)
	outboxRepo := postgres.NewAuditOutboxRepository(log, postgresDB)

	// Initialize services
	pool := postgresDB.Pool()
	dayService := service.NewDayService(log, pool, dayRepo, outboxRepo)
	snapshotService := service.NewSnapshotService(log, pool, dayRepo, accountRepo, txRepo, outboxRepo)
	transactionService := service.NewTransactionService(log, pool, dayRepo, accountRepo, txRepo, outboxRepo)
	reconciliationService := service.NewReconciliationService(log, pool, dayRepo, txRepo, handoffRepo, outboxRepo)

	// Initialize outbox poller
	factPublisher := outbox_poller.NewFactPublisher(outboxRepo, auditProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, factPublisher, log)

	// Initialize REST server
	server := backoffice.NewServer(log, cfg, dayService, snapshotService, transactionService, reconciliationService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start outbox poller in goroutine
	go func() {
		log.Info("Starting outbox poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context; this also stops the poller
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = auditProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
