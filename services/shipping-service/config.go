package main

import (
	"context"
	"fmt"
	"os"

	aws_pkg "github.com/oemparts/storefront/pkg/aws"
	"github.com/oemparts/storefront/services/common/database"
	"github.com/oemparts/storefront/services/shipping-service/models"
)

// Config holds all configuration for the shipping service.
type Config struct {
	Env            string
	Port           string
	JWTSecret      string
	AllowedOrigins string
	Postgres       database.PostgresConfig

	// FreightProvider is "demo" or "shippo".
	FreightProvider string
	ShippoAPIKey    string
	ShippoBaseURL   string

	OriginName       string
	OriginStreet1    string
	OriginCity       string
	OriginState      string
	OriginPostalCode string
	OriginCountry    string
	OriginPhone      string
}

func (c *Config) OriginAddress() models.Address {
	return models.Address{
		Name:       c.OriginName,
		Street1:    c.OriginStreet1,
		City:       c.OriginCity,
		State:      c.OriginState,
		PostalCode: c.OriginPostalCode,
		Country:    c.OriginCountry,
		Phone:      c.OriginPhone,
	}
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnv("PORT", "8091"),
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
		FreightProvider: getEnv("FREIGHT_PROVIDER", "demo"),
		ShippoAPIKey:    os.Getenv("SHIPPO_API_KEY"),
		ShippoBaseURL:   os.Getenv("SHIPPO_BASE_URL"),

		OriginName:       getEnv("ORIGIN_NAME", "OEM Parts Warehouse"),
		OriginStreet1:    getEnv("ORIGIN_STREET1", "400 Distribution Way"),
		OriginCity:       getEnv("ORIGIN_CITY", "Columbus"),
		OriginState:      getEnv("ORIGIN_STATE", "OH"),
		OriginPostalCode: getEnv("ORIGIN_POSTAL_CODE", "43215"),
		OriginCountry:    getEnv("ORIGIN_COUNTRY", "US"),
		OriginPhone:      getEnv("ORIGIN_PHONE", "+16145550100"),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			if m, err := sm.GetSecretMap(context.Background(), "shipping/DB_CREDENTIALS"); err == nil {
				overlay(&cfg.Postgres.User, m["POSTGRES_USER"])
				overlay(&cfg.Postgres.Password, m["POSTGRES_PASSWORD"])
				overlay(&cfg.Postgres.DBName, m["POSTGRES_DB"])
				overlay(&cfg.Postgres.Host, m["POSTGRES_HOST"])
			}
			if v, err := sm.GetSecret(context.Background(), "shipping/SHIPPO_API_KEY"); err == nil {
				overlay(&cfg.ShippoAPIKey, v)
			}
			if v, err := sm.GetSecret(context.Background(), "shipping/JWT_SECRET"); err == nil {
				overlay(&cfg.JWTSecret, v)
			}
		}
	}

	if cfg.Postgres.User == "" || cfg.Postgres.Password == "" || cfg.Postgres.DBName == "" {
		return nil, fmt.Errorf("database config incomplete")
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
