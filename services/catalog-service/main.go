package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	aws_pkg "github.com/oemparts/storefront/pkg/aws"
	"github.com/oemparts/storefront/services/catalog-service/controllers"
	"github.com/oemparts/storefront/services/catalog-service/models"
	"github.com/oemparts/storefront/services/catalog-service/repository"
	"github.com/oemparts/storefront/services/catalog-service/routes"
	"github.com/oemparts/storefront/services/catalog-service/services"
	"github.com/oemparts/storefront/services/common/auth"
	"github.com/oemparts/storefront/services/common/database"
	"github.com/oemparts/storefront/services/common/logger"
	"github.com/oemparts/storefront/services/common/middleware"
	"go.uber.org/zap"
)

const serviceName = "catalog-service"

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	cwLogs, cwErr := aws_pkg.NewCloudWatchLogsClient(context.Background(), serviceName)
	var zlog *zap.Logger
	if cwErr == nil && cwLogs.IsEnabled() {
		zlog, err = logger.InitializeWithWriter(cfg.Env, cwLogs)
	} else {
		zlog, err = logger.Initialize(cfg.Env)
	}
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	db, err := database.Connect(cfg.Postgres, zlog, &models.Part{}, &models.CustomerDiscount{}, &models.ImportJob{})
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db) //nolint:errcheck

	metricsClient, err := aws_pkg.NewMetricsClient(context.Background())
	if err != nil {
		zlog.Warn("CloudWatch metrics unavailable", zap.Error(err))
	}
	var recorder aws_pkg.MetricsRecorder
	if metricsClient != nil {
		recorder = metricsClient
	}

	partRepo := repository.NewGormPartRepository(db)
	discountRepo := repository.NewGormDiscountRepository(db)
	jobRepo := repository.NewGormImportJobRepository(db)

	deps := services.ImportDeps{Metrics: recorder}
	var queue *aws_pkg.SQSQueue
	if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err != nil {
		zlog.Warn("AWS config unavailable, async import disabled", zap.Error(err))
	} else if cfg.ImportBucket != "" {
		queueURL := cfg.ImportQueueURL
		if queueURL == "" {
			if queueURL, err = aws_pkg.GetQueueURL(context.Background(), awsCfg, cfg.ImportQueue); err != nil {
				zlog.Warn("Import queue not found, async import disabled", zap.Error(err))
			}
		}
		if queueURL != "" {
			store := aws_pkg.NewS3Store(awsCfg, cfg.ImportBucket)
			queue = aws_pkg.NewSQSQueue(awsCfg, queueURL, zlog)
			deps.Store, deps.Presigner, deps.Queue = store, store, queue
		}
	}

	catalogService := services.NewCatalogService(partRepo, discountRepo, recorder, zlog)
	importService := services.NewImportService(partRepo, jobRepo, deps, zlog)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if queue != nil && cfg.RunWorker {
		services.StartImportWorker(workerCtx, queue, importService, recorder, zlog)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(middleware.RequestLogger(zlog))
	r.Use(middleware.Timeout(30 * time.Second))
	r.MaxMultipartMemory = controllers.MaxUploadSize

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})

	routes.RegisterCatalogRoutes(r,
		controllers.NewCatalogController(catalogService),
		controllers.NewImportController(importService),
		auth.Identity(auth.NewTokenValidator(cfg.JWTSecret), true),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	zlog.Info("Catalog service started", zap.String("port", cfg.Port))
	<-quit
	zlog.Info("Shutting down catalog service...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zlog.Info("Server exited cleanly")
}
