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
	aws_pkg "github.com/oemparts/storefront/pkg/aws"
	"github.com/oemparts/storefront/services/cart-service/config"
	"github.com/oemparts/storefront/services/cart-service/controllers"
	"github.com/oemparts/storefront/services/cart-service/database"
	"github.com/oemparts/storefront/services/cart-service/kafka"
	"github.com/oemparts/storefront/services/cart-service/routes"
	"github.com/oemparts/storefront/services/cart-service/services"
	"github.com/oemparts/storefront/services/common/auth"
	"github.com/oemparts/storefront/services/common/logger"
	"github.com/oemparts/storefront/services/common/middleware"
	"go.uber.org/zap"
)

const serviceName = "cart-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.Initialize(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	redisClient, err := database.NewRedisClient(context.Background(), cfg.RedisURL, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close() //nolint:errcheck

	metricsClient, err := aws_pkg.NewMetricsClient(context.Background())
	if err != nil {
		zlog.Warn("CloudWatch metrics unavailable", zap.Error(err))
	}
	var recorder aws_pkg.MetricsRecorder
	if metricsClient != nil {
		recorder = metricsClient
	}

	repo := database.NewCartRepository(redisClient, cfg.CartTTL, cfg.IdempotencyTTL)
	cartService := services.NewCartService(repo, producer, recorder, zlog)
	controller := controllers.NewCartController(cartService)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(middleware.ParseOrigins(cfg.AllowedOrigins)))
	router.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	router.Use(middleware.RequestLogger(zlog))
	router.Use(middleware.Timeout(30 * time.Second))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})

	var tokens *auth.TokenValidator
	if cfg.JWTSecret != "" {
		tokens = auth.NewTokenValidator(cfg.JWTSecret)
	}
	routes.RegisterCartRoutes(router, controller, auth.Identity(tokens, true))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zlog.Info("Cart service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zlog.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("Shutdown error", zap.Error(err))
	}
	zlog.Info("Server shutdown complete.")
}
