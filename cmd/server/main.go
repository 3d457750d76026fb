// Package main is the entry point for the Invoicer API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"invoicer/internal/domain/auth"
	"invoicer/internal/domain/catalogs/customer"
	"invoicer/internal/domain/catalogs/item"
	"invoicer/internal/domain/documents"
	dc "invoicer/internal/domain/documents/delivery_challan"
	"invoicer/internal/domain/documents/quotation"
	"invoicer/internal/domain/documents/sale"
	"invoicer/internal/domain/reports"
	v1 "invoicer/internal/infrastructure/http/v1"
	"invoicer/internal/infrastructure/http/v1/dto"
	"invoicer/internal/infrastructure/http/v1/handlers"
	"invoicer/internal/infrastructure/media"
	"invoicer/internal/infrastructure/objectstore"
	"invoicer/internal/infrastructure/pdf"
	"invoicer/internal/infrastructure/storage/postgres"
	"invoicer/internal/infrastructure/storage/postgres/auth_repo"
	"invoicer/internal/infrastructure/storage/postgres/catalog_repo"
	"invoicer/internal/infrastructure/storage/postgres/document_repo"
	"invoicer/pkg/logger"
	"invoicer/pkg/numerator"
)

func main() {
	// A missing .env is fine: the environment may already be set.
	_ = godotenv.Load()

	cfg := loadConfig()

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.development(),
		Service:     "invoicer-api",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)
	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting invoicer server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	poolCfg.MinConns = int32(cfg.DBMinConns)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Object storage ---
	store, filesDir, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open object store", "provider", cfg.StorageProvider, "error", err)
	}
	defer func() {
		if err := closeStore.Close(); err != nil {
			log.Warnw("failed to close object store", "error", err)
		}
	}()
	images := media.NewPublisher(store, cfg.ImageMaxSide)

	// --- PDF renderer ---
	renderer, err := pdf.NewRenderer(pdf.Config{
		BrowserWSEndpoint: cfg.BrowserWSEndpoint,
		TempDir:           cfg.PDFTempDir,
		Timeout:           cfg.PDFTimeout,
	})
	if err != nil {
		log.Fatalw("failed to initialize pdf renderer", "error", err)
	}

	// --- Counters and audit ---
	numbers := numerator.New(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	})
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Auth ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.AccessTokenTTL
	jwtService := auth.NewJWTService(jwtConfig)

	tokenRepo := auth_repo.NewTokenRepo(txManager)
	authConfig := auth.DefaultServiceConfig()
	authConfig.RefreshTokenExpiry = cfg.RefreshTokenTTL
	authConfig.PhoneRegion = cfg.PhoneRegion
	authService := auth.NewService(auth.Deps{
		Users:     auth_repo.NewUserRepo(txManager),
		Addresses: auth_repo.NewAddressRepo(txManager),
		Tokens:    tokenRepo,
		Counters:  numbers,
		Assets:    images,
		TxManager: txManager,
		JWT:       jwtService,
	}, authConfig)

	if n, err := tokenRepo.CleanupExpiredTokens(ctx); err != nil {
		log.Warnw("failed to clean up expired refresh tokens", "error", err)
	} else if n > 0 {
		log.Infow("expired refresh tokens removed", "count", n)
	}

	// --- Catalogs ---
	itemService := item.NewService(catalog_repo.NewItemRepo(txManager), txManager, images)
	customerService := customer.NewService(catalog_repo.NewCustomerRepo(txManager), txManager)

	// --- Documents ---
	workflow := documents.NewWorkflow(documents.Deps{
		TxManager: txManager,
		Inventory: itemService,
		Customers: customerService,
		Counters:  numbers,
		Lines:     document_repo.NewLineRepo(txManager),
		Issuers:   authService,
		Renderer:  renderer,
		Store:     store,
		Linker:    document_repo.NewLinkRepo(txManager),
		Auditor:   auditService,
	})

	quotationRepo := document_repo.NewQuotationRepo(txManager)
	saleService := sale.NewService(document_repo.NewSaleRepo(txManager), workflow, itemService, customerService)
	quotationService := quotation.NewService(quotationRepo, workflow)
	challanService := dc.NewService(document_repo.NewDeliveryChallanRepo(txManager), quotationRepo, workflow)
	reportsService := reports.NewService(saleService)

	// --- Router ---
	if err := dto.RegisterValidators(); err != nil {
		log.Fatalw("failed to register validators", "error", err)
	}

	cookies := handlers.DefaultCookieConfig()
	cookies.Secure = cfg.CookieSecure
	cookies.Domain = cfg.CookieDomain
	cookies.AccessTTL = cfg.AccessTokenTTL
	cookies.RefreshTTL = cfg.RefreshTokenTTL

	router := v1.NewRouter(v1.RouterConfig{
		Logger:                 log,
		Release:                !cfg.development(),
		CORSOrigins:            cfg.CORSOrigins,
		Cookies:                cookies,
		FilesDir:               filesDir,
		DB:                     pool,
		JWTValidator:           jwtService,
		Numbers:                numbers,
		AuthService:            authService,
		ItemService:            itemService,
		CustomerService:        customerService,
		SaleService:            saleService,
		QuotationService:       quotationService,
		DeliveryChallanService: challanService,
		ReportsService:         reportsService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.PDFTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port, "storage", cfg.StorageProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	pool.LogStats(ctx)
	log.Info("server stopped")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore selects the object store. The returned directory is served under
// /files and is empty for remote stores.
func openStore(ctx context.Context, cfg config) (objectstore.Store, string, io.Closer, error) {
	switch cfg.StorageProvider {
	case "gcs":
		gcs, err := objectstore.NewGCS(ctx, objectstore.GCSConfig{
			Bucket:          cfg.GCSBucket,
			CredentialsJSON: cfg.GCSCredentialsJSON,
		})
		if err != nil {
			return nil, "", nil, err
		}
		return gcs, "", gcs, nil
	case "local":
		local, err := objectstore.NewLocal(cfg.LocalStorageDir, cfg.PublicBaseURL+"/files")
		if err != nil {
			return nil, "", nil, err
		}
		return local, local.Root(), nopCloser{}, nil
	default:
		return nil, "", nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}
