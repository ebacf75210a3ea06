package v1

import (
	"github.com/gin-gonic/gin"

	"coldstore/internal/app"
	"coldstore/internal/infrastructure/http/v1/handlers"
	"coldstore/internal/infrastructure/http/v1/middleware"
	"coldstore/internal/infrastructure/metrics"
	"coldstore/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Services are the domain services the handlers call
	Services *app.Services

	// Logger for request logging
	Logger *logger.Logger

	// Metrics, when set, records HTTP metrics and serves /metrics
	Metrics *metrics.Metrics

	// Ready backs the readiness probe
	Ready handlers.ReadyFunc
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Operator())
	router.Use(middleware.Logger(log))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Ready)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		base := handlers.NewBaseHandler()
		registerBalanceRoutes(v1, base, cfg.Services)
		registerDocumentRoutes(v1, base, cfg.Services)
		registerEntryRoutes(v1, base, cfg.Services)
		registerReportRoutes(v1, base, cfg.Services)
	}

	return router
}

func registerBalanceRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	balanceHandler := handlers.NewBalanceHandler(base, svc.TxManager, svc.Ledger, svc.Balance)
	balance := rg.Group("/balance")
	{
		balance.GET("/receipt/:id", balanceHandler.Receipt)
		balance.GET("/aggregate", balanceHandler.Aggregate)
		balance.POST("/check", balanceHandler.Check)
	}

	ratesHandler := handlers.NewRatesHandler(base, svc.Rates)
	rg.GET("/rates", ratesHandler.Get)
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	RegisterDocumentRoutes(rg.Group("/receipts"), handlers.NewReceiptHandler(base, svc.Receipts))
	RegisterDocumentRoutes(rg.Group("/dispatches"), handlers.NewDispatchHandler(base, svc.Dispatches))

	mobileHandler := handlers.NewMobileHandler(base, svc.Mobile)
	rg.POST("/mobile/receipts", mobileHandler.SubmitReceipt)
}

func registerEntryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	entryHandler := handlers.NewEntryHandler(base, svc.DispatchEntry, svc.ReceiptEntry)
	entry := rg.Group("/entry")
	{
		entry.POST("/dispatch-row", entryHandler.DispatchRow)
		entry.POST("/dispatch-header", entryHandler.DispatchHeader)
		entry.POST("/receipt-row", entryHandler.ReceiptRow)
	}
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	reportsHandler := handlers.NewReportsHandler(base, svc.Reports)
	reports := rg.Group("/reports")
	{
		reports.GET("/stock-ledger", reportsHandler.StockLedger)
		reports.GET("/batches", reportsHandler.Batches)
		reports.GET("/pending", reportsHandler.Pending)
		reports.GET("/aging", reportsHandler.Aging)
		reports.GET("/stock-levels", reportsHandler.StockLevels)
		reports.GET("/audit-trail", reportsHandler.AuditTrail)
	}
}
