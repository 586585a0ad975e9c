// Package main is the entry point for the stock ledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/item"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/warehouse"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/ledger"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/posting"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/procurement"
	v1 "github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/http/v1"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/storage/postgres"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/storage/postgres/catalog_repo"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/storage/postgres/ledger_repo"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/storage/postgres/procurement_repo"
	"github.com/L-Y-21/twist-erp-sub001/pkg/logger"
	"github.com/L-Y-21/twist-erp-sub001/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting stock ledger server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	itemRepo := catalog_repo.NewItemRepo(txManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	poRepo := procurement_repo.NewPurchaseOrderRepo(txManager)
	grnRepo := procurement_repo.NewGRNRepo(txManager)

	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit store", "error", err)
	}

	// Numbers requested inside a posting transaction are allocated on that
	// same transaction and roll back with it.
	numeratorService := numerator.New(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	})

	// --- Services ---
	itemService := item.NewService(itemRepo)
	warehouseService := warehouse.NewService(warehouseRepo)
	ledgerService := ledger.NewService(ledgerRepo)
	postingService := posting.NewService(itemRepo, warehouseRepo, ledgerRepo, numeratorService, txManager, auditStore)
	procurementService := procurement.NewService(poRepo, grnRepo, warehouseRepo, postingService, numeratorService, txManager)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:               pool,
		Logger:             log,
		ItemService:        itemService,
		WarehouseService:   warehouseService,
		LedgerService:      ledgerService,
		PostingService:     postingService,
		ProcurementService: procurementService,
		GRNRepo:            grnRepo,
		AuditStore:         auditStore,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
