package main

import (
	"context"
	"fmt"
	"os"

	aws_pkg "github.com/oemparts/storefront/pkg/aws"
	"github.com/oemparts/storefront/services/common/database"
)

// Config holds all environment variables for the catalog-service.
type Config struct {
	Env            string
	Port           string
	JWTSecret      string
	AllowedOrigins string
	Postgres       database.PostgresConfig

	ImportBucket   string
	ImportQueueURL string
	ImportQueue    string
	RunWorker      bool
}

// LoadConfig reads the environment. When AWS_USE_SECRETS=true the database
// credentials and JWT secret come from Secrets Manager, falling back to env.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnv("PORT", "8082"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		ImportBucket:   os.Getenv("CATALOG_IMPORT_BUCKET"),
		ImportQueueURL: os.Getenv("CATALOG_IMPORT_QUEUE_URL"),
		ImportQueue:    getEnv("CATALOG_IMPORT_QUEUE", "catalog-import-queue"),
		RunWorker:      getEnv("CATALOG_IMPORT_WORKER", "true") == "true",
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			if m, err := sm.GetSecretMap(context.Background(), "catalog/DB_CREDENTIALS"); err == nil {
				overlay(&cfg.Postgres.User, m["POSTGRES_USER"])
				overlay(&cfg.Postgres.Password, m["POSTGRES_PASSWORD"])
				overlay(&cfg.Postgres.DBName, m["POSTGRES_DB"])
				overlay(&cfg.Postgres.Host, m["POSTGRES_HOST"])
				overlay(&cfg.Postgres.Port, m["POSTGRES_PORT"])
			}
			if v, err := sm.GetSecret(context.Background(), "catalog/JWT_SECRET"); err == nil {
				overlay(&cfg.JWTSecret, v)
			}
		}
	}

	if cfg.Postgres.User == "" || cfg.Postgres.Password == "" || cfg.Postgres.DBName == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
