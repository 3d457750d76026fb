// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"invoicer/internal/domain/auth"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/internal/domain/catalogs/item"
	dc "invoicer/internal/domain/documents/delivery_challan"
	"invoicer/internal/domain/documents/quotation"
	"invoicer/internal/domain/documents/sale"
	"invoicer/internal/domain/reports"
	"invoicer/internal/infrastructure/http/v1/handlers"
	"invoicer/internal/infrastructure/http/v1/middleware"
	"invoicer/pkg/logger"
)

// RouterConfig holds the services and settings the router wires into handlers.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Release switches gin to release mode
	Release bool

	// CORSOrigins lists the browser origins allowed to call the API with cookies
	CORSOrigins []string

	// Cookies controls the auth cookies
	Cookies handlers.CookieConfig

	// FilesDir is served under /files when the local object store is in use
	FilesDir string

	// DB is pinged by the readiness probe
	DB handlers.Pinger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Numbers answers next-number lookups
	Numbers handlers.NumberPeeker

	AuthService            *auth.Service
	ItemService            *item.Service
	CustomerService        *customer.Service
	SaleService            *sale.Service
	QuotationService       *quotation.Service
	DeliveryChallanService *dc.Service
	ReportsService         *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	healthHandler.RegisterRoutes(router.Group("/health"))

	if cfg.FilesDir != "" {
		router.Static("/files", cfg.FilesDir)
	}

	base := handlers.NewBaseHandler()
	v1 := router.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(base, cfg.AuthService, cfg.Cookies)
	authHandler.RegisterRoutes(
		v1.Group("/auth"),
		v1.Group("/auth", middleware.Auth(cfg.JWTValidator)),
	)

	protected := v1.Group("", middleware.Auth(cfg.JWTValidator))
	registerCatalogRoutes(protected, base, cfg)
	registerDocumentRoutes(protected, base, cfg)

	return router
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handlers.NewItemHandler(base, cfg.ItemService).RegisterRoutes(rg.Group("/items"))
	handlers.NewCustomerHandler(base, cfg.CustomerService).RegisterRoutes(rg.Group("/customers"))
	handlers.NewCounterHandler(base, cfg.Numbers).RegisterRoutes(rg.Group("/counters"))
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	sales := rg.Group("/sales")
	handlers.NewReportsHandler(base, cfg.ReportsService).RegisterRoutes(sales)
	handlers.NewSaleHandler(base, cfg.SaleService).RegisterRoutes(sales, rg.Group("/invoices"))

	handlers.NewQuotationHandler(base, cfg.QuotationService).RegisterRoutes(rg.Group("/quotations"))
	handlers.NewDeliveryChallanHandler(base, cfg.DeliveryChallanService).RegisterRoutes(rg.Group("/delivery-challans"))
}
