// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/item"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/warehouse"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/ledger"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/posting"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/procurement"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/http/v1/handlers"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/http/v1/middleware"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/storage/postgres"
	"github.com/L-Y-21/twist-erp-sub001/pkg/logger"
)

// RouterConfig holds the wired services for the router.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	ItemService        *item.Service
	WarehouseService   *warehouse.Service
	LedgerService      *ledger.Service
	PostingService     *posting.Service
	ProcurementService *procurement.Service
	GRNRepo            procurement.GRNRepository
	AuditStore         *postgres.AuditStore
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.Actor())
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	v1 := router.Group("/api/v1")
	{
		// --- CATALOGS ---
		catalogHandler := handlers.NewCatalogHandler(baseHandler, cfg.ItemService, cfg.WarehouseService)
		items := v1.Group("/items")
		{
			items.POST("", catalogHandler.CreateItem)
			items.GET("", catalogHandler.ListItems)
			items.GET("/:id", catalogHandler.GetItem)
			items.PUT("/:id", catalogHandler.UpdateItem)
		}
		warehouses := v1.Group("/warehouses")
		{
			warehouses.POST("", catalogHandler.CreateWarehouse)
			warehouses.GET("", catalogHandler.ListWarehouses)
			warehouses.GET("/:id", catalogHandler.GetWarehouse)
			warehouses.PUT("/:id", catalogHandler.UpdateWarehouse)
			warehouses.POST("/:id/locations", catalogHandler.CreateLocation)
			warehouses.GET("/:id/locations", catalogHandler.ListLocations)
		}

		// --- STOCK LEDGER ---
		stockHandler := handlers.NewStockHandler(baseHandler, cfg.LedgerService, cfg.AuditStore)
		postingHandler := handlers.NewPostingHandler(baseHandler, cfg.PostingService)
		stockGroup := v1.Group("/stock")
		{
			stockGroup.GET("/levels", stockHandler.GetLevels)
			stockGroup.GET("/transactions", stockHandler.GetTransactions)
			stockGroup.GET("/items/:id/summary", stockHandler.GetItemSummary)
			stockGroup.GET("/reconcile", stockHandler.Reconcile)
			stockGroup.GET("/documents/:number/history", stockHandler.GetDocumentHistory)
			stockGroup.POST("/adjustments", postingHandler.CreateAdjustment)
			stockGroup.POST("/transfers", postingHandler.CreateTransfer)
		}

		// --- PROCUREMENT ---
		procurementHandler := handlers.NewProcurementHandler(baseHandler, cfg.ProcurementService, cfg.GRNRepo)
		grns := v1.Group("/grns")
		{
			grns.POST("", procurementHandler.CreateGRN)
			grns.GET("/:id", procurementHandler.GetGRN)
			grns.POST("/:id/inspect", procurementHandler.UpdateInspection)
		}
		purchaseOrders := v1.Group("/purchase-orders")
		{
			purchaseOrders.GET("/:id", procurementHandler.GetPurchaseOrder)
			purchaseOrders.GET("/:id/grns", procurementHandler.ListPurchaseOrderGRNs)
		}
	}

	return router
}
