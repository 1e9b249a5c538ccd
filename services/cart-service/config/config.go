package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	aws_pkg "github.com/oemparts/storefront/pkg/aws"
)

type Config struct {
	Env            string
	Port           string
	RedisURL       string
	KafkaBrokers   []string
	KafkaTopic     string
	CartTTL        time.Duration
	IdempotencyTTL time.Duration
	JWTSecret      string
	AllowedOrigins string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnv("PORT", "8086"),
		RedisURL:       getEnv("REDIS_URL", "redis://redis:6379"),
		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "checkout.requested"),
		CartTTL:        time.Hour * 24 * 7,
		IdempotencyTTL: time.Hour * 24,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	if raw := os.Getenv("CART_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid CART_TTL: %w", err)
		}
		cfg.CartTTL = d
	}
	if raw := os.Getenv("IDEMPOTENCY_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
		}
		cfg.IdempotencyTTL = d
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			if v, err := sm.GetSecret(context.Background(), "cart/JWT_SECRET"); err == nil && v != "" {
				cfg.JWTSecret = v
			}
		}
	}

	if len(cfg.KafkaBrokers) == 0 {
		return cfg, fmt.Errorf("KAFKA_BROKERS is required")
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
