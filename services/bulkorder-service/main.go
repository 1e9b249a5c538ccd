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
	"github.com/oemparts/storefront/services/bulkorder-service/controllers"
	"github.com/oemparts/storefront/services/bulkorder-service/repository"
	"github.com/oemparts/storefront/services/bulkorder-service/routes"
	"github.com/oemparts/storefront/services/bulkorder-service/services"
	"github.com/oemparts/storefront/services/common/auth"
	"github.com/oemparts/storefront/services/common/logger"
	"github.com/oemparts/storefront/services/common/middleware"
	"go.uber.org/zap"
)

const serviceName = "bulkorder-service"

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
	if cwErr != nil {
		zlog.Warn("CloudWatch Logs unavailable", zap.Error(cwErr))
	}

	redisClient, err := repository.NewRedisClient(context.Background(), cfg.RedisURL, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	var snsClient aws_pkg.SNSPublisher
	if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err != nil {
		zlog.Warn("AWS config unavailable, SNS disabled", zap.Error(err))
	} else {
		snsClient = aws_pkg.NewSNSClient(awsCfg)
	}

	metricsClient, err := aws_pkg.NewMetricsClient(context.Background())
	if err != nil {
		zlog.Warn("CloudWatch metrics unavailable", zap.Error(err))
	}

	sessionRepo := repository.NewRedisSessionRepository(redisClient, cfg.SessionTTL)
	catalogClient := services.NewCatalogClient(cfg.CatalogServiceURL, zlog)
	cartClient := services.NewCartClient(cfg.CartServiceURL, cfg.CartTimeout, zlog)

	var recorder aws_pkg.MetricsRecorder
	if metricsClient != nil {
		recorder = metricsClient
	}
	bulkService := services.NewBulkOrderService(
		sessionRepo,
		catalogClient,
		cartClient,
		snsClient,
		recorder,
		services.Options{ValidationTimeout: cfg.ValidationTimeout, SNSTopicArn: cfg.SNSTopicArn},
		zlog,
	)
	bulkController := controllers.NewBulkOrderController(bulkService)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(middleware.RequestLogger(zlog))
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMin, cfg.RateLimitPerMin/4+1))
	r.Use(middleware.Timeout(30 * time.Second))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})

	var tokens *auth.TokenValidator
	if cfg.JWTSecret != "" {
		tokens = auth.NewTokenValidator(cfg.JWTSecret)
	}
	routes.RegisterBulkOrderRoutes(r, bulkController, auth.Identity(tokens, false))

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

	zlog.Info("Bulk order service started", zap.String("port", cfg.Port))
	<-quit
	zlog.Info("Shutting down bulk order service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zlog.Info("Server exited cleanly")
}
