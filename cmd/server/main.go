package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appledger "github.com/fscredit/backend/internal/application/ledger"
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/fscredit/backend/internal/infrastructure/cache"
	"github.com/fscredit/backend/internal/infrastructure/config"
	"github.com/fscredit/backend/internal/infrastructure/event"
	"github.com/fscredit/backend/internal/infrastructure/logger"
	"github.com/fscredit/backend/internal/infrastructure/migration"
	"github.com/fscredit/backend/internal/infrastructure/notification"
	"github.com/fscredit/backend/internal/infrastructure/payout"
	"github.com/fscredit/backend/internal/infrastructure/persistence"
	"github.com/fscredit/backend/internal/infrastructure/scheduler"
	"github.com/fscredit/backend/internal/infrastructure/webhook"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	migrationsPath  = "migrations"
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting credit ledger service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Apply schema migrations before opening the pooled GORM connection
	if err := runMigrations(cfg, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize database connection with zap-backed GORM logging
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Event serializer, outbox publisher and the transactional store
	eventSerializer := event.NewDomainEventSerializer()
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	store := persistence.NewGormStore(db, outboxPublisher)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Application services
	payoutDispatcher := payout.NewLogDispatcher(log)
	ledgerService := appledger.NewLedgerService(store, payoutDispatcher, log)

	// Cache-backed components, Redis when reachable
	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := cacheFactory.CreateIdempotencyStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	projectionInvalidator, err := cacheFactory.CreateProjectionInvalidator()
	if err != nil {
		log.Fatal("Failed to create projection invalidator", zap.Error(err))
	}
	defer func() {
		if err := projectionInvalidator.Close(); err != nil {
			log.Error("Error closing projection invalidator", zap.Error(err))
		}
	}()

	// Event bus and post-commit handlers
	eventBus := event.NewInMemoryEventBus(log)
	idempotencyConfig := shared.DefaultIdempotencyConfig()

	// Read-side repositories for handlers that resolve event targets
	businessRepo := persistence.NewGormBusinessRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)

	if cfg.Webhook.Enabled {
		webhookSender := webhook.NewSender(webhook.Config{
			RequestTimeout: cfg.Webhook.RequestTimeout,
			MaxAttempts:    cfg.Webhook.MaxAttempts,
			RetryDelay:     cfg.Webhook.RetryDelay,
		}, log)
		webhookHandler := webhook.NewHandler(webhookSender, businessRepo, invoiceRepo, log)
		eventBus.Subscribe(event.NewIdempotentHandler(webhookHandler, idempotencyStore, idempotencyConfig, log))
		log.Info("Supplier webhook delivery enabled",
			zap.Strings("event_types", webhookHandler.EventTypes()),
		)
	}

	notificationHandler := notification.NewHandler(
		notification.NewLogNotifier(log), customerRepo, invoiceRepo, log,
	)
	eventBus.Subscribe(event.NewIdempotentHandler(notificationHandler, idempotencyStore, idempotencyConfig, log))

	// Projection invalidation is naturally idempotent, no dedupe wrapper needed
	eventBus.Subscribe(cache.NewInvalidationHandler(projectionInvalidator, log))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Outbox processor delivers committed events to the bus
	processorConfig := outboxProcessorConfig(cfg.Event)
	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
	if cfg.Event.ProcessorEnabled {
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// Accrual scheduler keeps interest and overdue statuses current
	accrualScheduler := scheduler.NewAccrualScheduler(ledgerService, log, scheduler.AccrualSchedulerConfig{
		Enabled:       cfg.Scheduler.Enabled,
		SweepInterval: cfg.Scheduler.SweepInterval,
		SweepTimeout:  cfg.Scheduler.SweepTimeout,
	})
	if err := accrualScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start accrual scheduler", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := accrualScheduler.Stop(stopCtx); err != nil {
			log.Error("Error stopping accrual scheduler", zap.Error(err))
		}
	}()

	// Health endpoint for orchestrator probes
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: mux,
	}

	go func() {
		log.Info("Health endpoint listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Health server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Health server shutdown failed", zap.Error(err))
	}
}

// runMigrations applies pending migrations over a dedicated connection
func runMigrations(cfg *config.Config, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	migrator, err := migration.New(sqlDB, migrationsPath, log)
	if err != nil {
		return err
	}
	return migrator.Up()
}

func outboxProcessorConfig(cfg config.EventConfig) event.OutboxProcessorConfig {
	processorConfig := event.DefaultOutboxProcessorConfig()
	if cfg.BatchSize > 0 {
		processorConfig.BatchSize = cfg.BatchSize
	}
	if cfg.PollInterval > 0 {
		processorConfig.PollInterval = cfg.PollInterval
	}
	processorConfig.CleanupEnabled = cfg.CleanupEnabled
	if cfg.CleanupRetention > 0 {
		processorConfig.CleanupRetention = cfg.CleanupRetention
	}
	return processorConfig
}
