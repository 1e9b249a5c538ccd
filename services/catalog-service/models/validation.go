package models

const (
	StatusOK    = "ok"
	StatusWarn  = "warn"
	StatusError = "error"
)

const (
	MsgDiscontinued = "Part is discontinued"
	MsgOutOfStock   = "Out of stock - ships when available"
)

// ValidateSKUsRequest is the validation RPC body. A null userId means the
// caller is anonymous and gets list prices.
type ValidateSKUsRequest struct {
	SKUs   []string `json:"skus" binding:"required" validate:"max=1000,dive,max=64"`
	UserID *string  `json:"userId"`
}

// ValidationResult is one entry of the RPC response. Unknown SKUs are absent.
type ValidationResult struct {
	SKU             string   `json:"sku"`
	CatalogID       string   `json:"catalogId"`
	Description     string   `json:"description"`
	Price           float64  `json:"price"`
	DiscountedPrice *float64 `json:"discountedPrice"`
	InStock         bool     `json:"inStock"`
	Status          string   `json:"status"`
	Message         string   `json:"message,omitempty"`
}

type SearchResponse struct {
	Parts []Part `json:"parts"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
