package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Part is one orderable OEM part. SKU is stored in sku.Normalize form (upper
// case, A-Z 0-9 '-' '_') so lookups from pasted lists match exactly.
type Part struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU          string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku"`
	Description  string         `gorm:"type:text;not null" json:"description"`
	Manufacturer string         `gorm:"type:varchar(128)" json:"manufacturer"`
	Price        float64        `gorm:"type:numeric(12,2);not null" json:"price"`
	StockQty     int            `gorm:"not null" json:"stock_qty"`
	Active       bool           `gorm:"not null" json:"active"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// CustomerDiscount is a flat percentage off list price for one customer.
type CustomerDiscount struct {
	UserID    string    `gorm:"type:varchar(64);primaryKey" json:"user_id"`
	Percent   float64   `gorm:"type:numeric(5,2);not null" json:"percent"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
