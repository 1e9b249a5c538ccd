package main

import (
	"context"
	"fmt"
	"os"
	"time"

	aws_pkg "github.com/oemparts/storefront/pkg/aws"
)

// Config holds all environment variables for the bulkorder-service.
type Config struct {
	Env               string
	Port              string
	RedisURL          string
	CatalogServiceURL string
	CartServiceURL    string
	ValidationTimeout time.Duration
	CartTimeout       time.Duration
	SessionTTL        time.Duration
	SNSTopicArn       string
	JWTSecret         string
	AllowedOrigins    string
	RateLimitPerMin   int
}

// LoadConfig reads the environment, with Secrets Manager overrides when
// AWS_USE_SECRETS=true.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env:               getEnv("ENV", "development"),
		Port:              getEnv("PORT", "8093"),
		RedisURL:          getEnv("REDIS_URL", "redis://redis:6379/0"),
		CatalogServiceURL: getEnv("CATALOG_SERVICE_URL", "http://catalog-service:8082"),
		CartServiceURL:    getEnv("CART_SERVICE_URL", "http://cart-service:8086"),
		SNSTopicArn:       os.Getenv("BULKORDER_SNS_TOPIC_ARN"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	var err error
	if cfg.ValidationTimeout, err = getDuration("VALIDATION_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.CartTimeout, err = getDuration("CART_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if _, err := fmt.Sscanf(getEnv("RATE_LIMIT_PER_MIN", "120"), "%d", &cfg.RateLimitPerMin); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MIN: %w", err)
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			if v, err := sm.GetSecret(context.Background(), "bulkorder/JWT_SECRET"); err == nil && v != "" {
				cfg.JWTSecret = v
			}
			if v, err := sm.GetSecret(context.Background(), "bulkorder/REDIS_URL"); err == nil && v != "" {
				cfg.RedisURL = v
			}
		}
	}

	if cfg.ValidationTimeout <= 0 {
		return nil, fmt.Errorf("VALIDATION_TIMEOUT must be positive")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
