package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/byununivn-max/eximuni-debit-note/internal/application/billing"
	shipmentapp "github.com/byununivn-max/eximuni-debit-note/internal/application/shipment"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/auth"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/config"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/excel"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/logger"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/persistence"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/storage"
	"github.com/byununivn-max/eximuni-debit-note/internal/interfaces/http/handler"
	"github.com/byununivn-max/eximuni-debit-note/internal/interfaces/http/middleware"
	"github.com/byununivn-max/eximuni-debit-note/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	log.Info("Starting debit note backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
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

	if err := persistence.AutoMigrate(db.DB); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	store, err := newArtifactStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize artifact storage", zap.Error(err))
	}

	// Repositories
	shipmentRepo := persistence.NewGormShipmentRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	feeItemRepo := persistence.NewGormFeeItemRepository(db.DB)
	debitNoteRepo := persistence.NewGormDebitNoteRepository(db.DB)
	exportRepo := persistence.NewGormExportRecordRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	aggregator := billing.NewFeeAggregator(decimal.NewFromFloat(cfg.Export.DefaultVATRate))
	shipmentService := shipmentapp.NewService(shipmentRepo, clientRepo)
	debitNoteService := billingapp.NewDebitNoteService(txScope, debitNoteRepo, shipmentRepo, clientRepo, feeItemRepo, aggregator)
	exportService := billingapp.NewExportService(
		debitNoteRepo, exportRepo, shipmentRepo, clientRepo, feeItemRepo,
		aggregator, excel.NewGenerator(), store,
		billingapp.CompanyInfo{
			Name:  cfg.Export.CompanyName,
			TaxID: cfg.Export.CompanyTaxID,
		},
	)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Handlers
	shipmentHandler := handler.NewShipmentHandler(shipmentService, log)
	debitNoteHandler := handler.NewDebitNoteHandler(debitNoteService, log)
	exportHandler := handler.NewExportHandler(exportService, log)
	systemHandler := handler.NewSystemHandler(db, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.RequestLog(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health endpoint lives outside the authenticated API group
	systemHandler.RegisterRoutes(engine)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		Logger:     log,
	}))
	r.Register(shipmentHandler).
		Register(debitNoteHandler).
		Register(exportHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newArtifactStore picks the storage backend from configuration
func newArtifactStore(cfg *config.Config, log *zap.Logger) (storage.ArtifactStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		store, err := storage.NewS3Store(&cfg.Storage, storage.WithS3Logger(log))
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		log.Info("Using S3 artifact storage", zap.String("bucket", cfg.Storage.Bucket))
		return store, nil
	default:
		store, err := storage.NewLocalStore(cfg.Export.StorageDir)
		if err != nil {
			return nil, err
		}
		log.Info("Using local artifact storage", zap.String("dir", cfg.Export.StorageDir))
		return store, nil
	}
}
