package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	aws_pkg "github.com/oemparts/storefront/pkg/aws"
	"github.com/oemparts/storefront/services/catalog-service/models"
	"github.com/oemparts/storefront/services/catalog-service/repository"
	"github.com/oemparts/storefront/services/catalog-service/services"
	"github.com/oemparts/storefront/services/common/database"
	"go.uber.org/zap"
)

// catalog-import loads a parts CSV into the catalog database, either directly
// or by queueing it for the catalog-service import worker.
func main() {
	_ = godotenv.Load()

	var file, bucket, queueURL string
	var dryRun, async bool
	flag.StringVar(&file, "file", "", "path to the parts CSV")
	flag.BoolVar(&dryRun, "dry-run", false, "validate only, write nothing")
	flag.BoolVar(&async, "async", false, "upload to S3 and queue for the import worker")
	flag.StringVar(&bucket, "bucket", os.Getenv("CATALOG_IMPORT_BUCKET"), "S3 bucket for async imports")
	flag.StringVar(&queueURL, "queue-url", os.Getenv("CATALOG_IMPORT_QUEUE_URL"), "SQS queue URL for async imports")
	flag.Parse()

	if file == "" {
		log.Fatal("-file is required")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		log.Fatalf("read %s: %v", file, err)
	}

	zlog, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.Connect(database.PostgresConfig{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		DBName:   os.Getenv("POSTGRES_DB"),
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     getEnv("POSTGRES_PORT", "5432"),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
	}, zlog, &models.Part{}, &models.ImportJob{})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer database.Close(db) //nolint:errcheck

	var deps services.ImportDeps
	if async {
		if bucket == "" || queueURL == "" {
			log.Fatal("-async needs -bucket and -queue-url")
		}
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Fatalf("aws config: %v", err)
		}
		store := aws_pkg.NewS3Store(awsCfg, bucket)
		deps.Store, deps.Presigner = store, store
		deps.Queue = aws_pkg.NewSQSQueue(awsCfg, queueURL, zlog)
	}

	svc := services.NewImportService(repository.NewGormPartRepository(db), repository.NewGormImportJobRepository(db), deps, zlog)

	var out interface{}
	switch {
	case dryRun:
		out, err = svc.ValidateImport(ctx, bytes.NewReader(data))
	case async:
		out, err = svc.EnqueueImport(ctx, filepath.Base(file), data)
	default:
		out, err = svc.Import(ctx, bytes.NewReader(data))
	}
	if err != nil {
		log.Fatalf("import: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
