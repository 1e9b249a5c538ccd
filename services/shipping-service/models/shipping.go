package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a ship-to or ship-from location. Only Country and PostalCode
// drive demo pricing.
type Address struct {
	Name       string `json:"name,omitempty"`
	Street1    string `json:"street1,omitempty"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" validate:"required,max=16"`
	Country    string `json:"country" validate:"required,len=2"` // ISO 3166-1 alpha-2
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// ShippingRate is a single freight option.
type ShippingRate struct {
	Provider      string  `json:"provider"`
	ServiceLevel  string  `json:"service_level"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	EstimatedDays int     `json:"estimated_days"`
	RateID        string  `json:"rate_id"`
}

type ShippingRatesRequest struct {
	WeightKg    float64 `json:"weight_kg" binding:"required" validate:"gt=0,lte=20000"`
	Destination Address `json:"destination" binding:"required"`
}

type RatesResponse struct {
	QuoteID  string         `json:"quote_id,omitempty"`
	Rates    []ShippingRate `json:"rates"`
	DemoMode bool           `json:"demo_mode"`
}

// RateQuote records the rates shown to a caller so they can be looked up
// again at checkout.
type RateQuote struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID             string         `gorm:"type:varchar(128);index" json:"user_id,omitempty"`
	DestinationPostal  string         `gorm:"type:varchar(16);not null" json:"destination_postal_code"`
	DestinationCountry string         `gorm:"type:varchar(2);not null" json:"destination_country"`
	WeightKg           float64        `gorm:"not null" json:"weight_kg"`
	Provider           string         `gorm:"type:varchar(64);not null" json:"provider"`
	DemoMode           bool           `gorm:"not null" json:"demo_mode"`
	Rates              []ShippingRate `gorm:"type:jsonb;serializer:json" json:"rates"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
