package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/oemparts/storefront/api-gateway/routes"
	aws_pkg "github.com/oemparts/storefront/pkg/aws"
)

type Config struct {
	Env             string
	Port            string
	JWTSecret       string
	AllowedOrigins  string
	RateLimitPerMin int
	ProxyTimeout    time.Duration
	Upstreams       routes.Upstreams
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env:             getEnv("ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		RateLimitPerMin: getInt("RATE_LIMIT_PER_MIN", 300),
		ProxyTimeout:    getDuration("PROXY_TIMEOUT", 30*time.Second),
		Upstreams: routes.Upstreams{
			BulkOrder: getEnv("BULKORDER_SERVICE_URL", "http://bulkorder-service:8093"),
			Catalog:   getEnv("CATALOG_SERVICE_URL", "http://catalog-service:8082"),
			Cart:      getEnv("CART_SERVICE_URL", "http://cart-service:8086"),
			Shipping:  getEnv("SHIPPING_SERVICE_URL", "http://shipping-service:8091"),
		},
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			if v, err := aws_pkg.NewSecretsClient(awsCfg).GetSecret(context.Background(), "gateway/JWT_SECRET"); err == nil && v != "" {
				cfg.JWTSecret = v
			}
		}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}
