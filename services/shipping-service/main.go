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
	"github.com/oemparts/storefront/services/common/auth"
	"github.com/oemparts/storefront/services/common/database"
	"github.com/oemparts/storefront/services/common/logger"
	"github.com/oemparts/storefront/services/common/middleware"
	"github.com/oemparts/storefront/services/shipping-service/controllers"
	"github.com/oemparts/storefront/services/shipping-service/models"
	"github.com/oemparts/storefront/services/shipping-service/providers"
	"github.com/oemparts/storefront/services/shipping-service/repository"
	"github.com/oemparts/storefront/services/shipping-service/routes"
	servicepkg "github.com/oemparts/storefront/services/shipping-service/services"
	"go.uber.org/zap"
)

const serviceName = "shipping-service"

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.Initialize(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	db, err := database.Connect(cfg.Postgres, zlog, &models.RateQuote{})
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

	provider, demoMode := providers.Select(cfg.FreightProvider, cfg.ShippoAPIKey, cfg.ShippoBaseURL, zlog)
	if demoMode {
		zlog.Info("Freight quotes running in demo mode")
	}

	shippingService := servicepkg.NewShippingService(
		repository.NewGormQuoteRepository(db),
		provider,
		demoMode,
		cfg.OriginAddress(),
		recorder,
		zlog,
	)

	var tokens *auth.TokenValidator
	if cfg.JWTSecret != "" {
		tokens = auth.NewTokenValidator(cfg.JWTSecret)
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

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName, "demo_mode": demoMode})
	})

	routes.RegisterShippingRoutes(r, controllers.NewShippingController(shippingService), auth.Identity(tokens, false))

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

	zlog.Info("Shipping service started", zap.String("port", cfg.Port))
	<-quit
	zlog.Info("Shutting down shipping service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zlog.Info("Server exited cleanly")
}
