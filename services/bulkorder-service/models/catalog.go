package models

// ValidateSKUsRequest is the body of the catalog validation RPC. UserID is
// null for anonymous shoppers.
type ValidateSKUsRequest struct {
	SKUs   []string `json:"skus"`
	UserID *string  `json:"userId"`
}

// ValidationResult is one entry of the validation RPC response. SKUs the
// catalog does not know are absent from the response list.
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

// CartInsertion is the body sent to the cart service for one committed row.
type CartInsertion struct {
	CatalogID       string  `json:"catalogId"`
	SKU             string  `json:"sku"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	Quantity        int     `json:"quantity"`
	DiscountedPrice float64 `json:"discountedPrice"`
	InStock         bool    `json:"inStock"`
}
