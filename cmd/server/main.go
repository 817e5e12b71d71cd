package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	exportapp "github.com/chefstock/backend/internal/application/export"
	inventoryapp "github.com/chefstock/backend/internal/application/inventory"
	periodapp "github.com/chefstock/backend/internal/application/period"
	stocktakeapp "github.com/chefstock/backend/internal/application/stocktake"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/chefstock/backend/internal/infrastructure/cache"
	"github.com/chefstock/backend/internal/infrastructure/config"
	"github.com/chefstock/backend/internal/infrastructure/logger"
	"github.com/chefstock/backend/internal/infrastructure/persistence"
	"github.com/chefstock/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// services bundles the wired application services so embedding hosts (and the
// schedulers below) share one composition root.
type services struct {
	Inventory      *inventoryapp.InventoryService
	Recall         *inventoryapp.RecallService
	Expiry         *inventoryapp.ExpiryService
	Stocktake      *stocktakeapp.Service
	PeriodClose    *periodapp.CloseService
	Reconciliation *periodapp.ReconciliationService
	Export         *exportapp.Service

	idempotencyStore shared.IdempotencyStore
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ChefStock inventory engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	svcs, err := buildServices(cfg, db, log)
	if err != nil {
		log.Fatal("Failed to build services", zap.Error(err))
	}
	defer func() {
		if svcs.idempotencyStore != nil {
			if err := svcs.idempotencyStore.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}
	}()
	log.Info("Engine services initialized")

	// Background expiry sweep
	expiryScheduler := scheduler.NewExpiryScheduler(
		scheduler.DefaultExpirySchedulerConfig(),
		svcs.Expiry,
		persistence.NewGormBranchProvider(db.DB),
		log,
	)
	ctx := context.Background()
	if err := expiryScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start expiry scheduler", zap.Error(err))
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := expiryScheduler.Stop(stopCtx); err != nil {
		log.Error("Error stopping expiry scheduler", zap.Error(err))
	}

	log.Info("Shutdown complete")
}

// buildServices wires the application services over one transaction scope
func buildServices(cfg *config.Config, db *persistence.Database, log *zap.Logger) (*services, error) {
	scope := persistence.NewGormTransactionScope(db.DB)

	inventoryService := inventoryapp.NewInventoryService(scope)
	recallService := inventoryapp.NewRecallService(scope)
	expiryService := inventoryapp.NewExpiryService(scope)
	stocktakeService := stocktakeapp.NewService(scope)
	closeService := periodapp.NewCloseService(scope)
	reconciliationService := periodapp.NewReconciliationService(scope)
	exportService := exportapp.NewService(exportapp.WithBOM(cfg.Export.BOM))

	var idStore shared.IdempotencyStore
	if cfg.Idempotency.Enabled {
		store, err := cache.NewStore(cfg.Idempotency.Backend, cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(true),
		)
		if err != nil {
			return nil, err
		}
		idStore = store
		inventoryService.SetIdempotencyStore(store, shared.IdempotencyConfig{
			TTL:     cfg.Idempotency.TTL,
			Enabled: true,
		})
	}

	return &services{
		Inventory:        inventoryService,
		Recall:           recallService,
		Expiry:           expiryService,
		Stocktake:        stocktakeService,
		PeriodClose:      closeService,
		Reconciliation:   reconciliationService,
		Export:           exportService,
		idempotencyStore: idStore,
	}, nil
}
