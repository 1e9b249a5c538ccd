package models

import (
	"time"

	"github.com/google/uuid"
)

type ImportJobStatus string

const (
	ImportJobQueued     ImportJobStatus = "queued"
	ImportJobProcessing ImportJobStatus = "processing"
	ImportJobDone       ImportJobStatus = "done"
	ImportJobFailed     ImportJobStatus = "failed"
)

// ImportJob tracks an asynchronous catalog CSV import staged in S3.
type ImportJob struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ObjectKey string          `gorm:"type:varchar(255);not null" json:"object_key"`
	Filename  string          `gorm:"type:varchar(255)" json:"filename"`
	Status    ImportJobStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Result    *ImportResult   `gorm:"serializer:json" json:"result,omitempty"`
	Error     string          `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	SourceURL string          `gorm:"-" json:"source_url,omitempty"`
}

// ImportJobMessage is the SQS body announcing a staged import.
type ImportJobMessage struct {
	JobID     string `json:"job_id"`
	ObjectKey string `json:"object_key"`
}

// ImportRow is one CSV data row after type conversion.
type ImportRow struct {
	Line         int     `json:"line"`
	SKU          string  `json:"sku" validate:"required,max=64"`
	Description  string  `json:"description" validate:"required,max=2000"`
	Manufacturer string  `json:"manufacturer" validate:"max=128"`
	Price        float64 `json:"price" validate:"gte=0"`
	StockQty     int     `json:"stock_qty" validate:"gte=0"`
	Active       bool    `json:"active"`
}

type ImportRowError struct {
	Line  int    `json:"line"`
	SKU   string `json:"sku,omitempty"`
	Error string `json:"error"`
}

// ImportValidation is the dry-run report for a catalog CSV.
type ImportValidation struct {
	TotalRows     int              `json:"total_rows"`
	ValidRows     int              `json:"valid_rows"`
	InvalidRows   int              `json:"invalid_rows"`
	NewSKUs       int              `json:"new_skus"`
	UpdatedSKUs   int              `json:"updated_skus"`
	DuplicateSKUs []string         `json:"duplicate_skus"`
	Errors        []ImportRowError `json:"errors"`
}

type ImportResult struct {
	UpsertedCount int              `json:"upserted_count"`
	ErrorsCount   int              `json:"errors_count"`
	Errors        []ImportRowError `json:"errors"`
	Message       string           `json:"message"`
}
