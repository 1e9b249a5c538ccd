package models

import (
	"math"
	"time"
)

// CartItem is one catalog part in a cart. Items are keyed by CatalogID.
type CartItem struct {
	CatalogID       string  `json:"catalog_id"`
	SKU             string  `json:"sku"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discounted_price,omitempty"`
	Quantity        int     `json:"quantity"`
	InStock         bool    `json:"in_stock"`
}

// UnitPrice is the discounted price when one is set, else list price.
func (i CartItem) UnitPrice() float64 {
	if i.DiscountedPrice > 0 {
		return i.DiscountedPrice
	}
	return i.Price
}

type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewCart(owner string) *Cart {
	return &Cart{UserID: owner, Items: []CartItem{}}
}

// Add merges item into the cart, summing quantities for the same catalog id.
// The latest price and stock data win.
func (c *Cart) Add(item CartItem) {
	for i, existing := range c.Items {
		if existing.CatalogID == item.CatalogID {
			item.Quantity += existing.Quantity
			c.Items[i] = item
			return
		}
	}
	c.Items = append(c.Items, item)
}

// Remove reports whether an item was removed.
func (c *Cart) Remove(catalogID string) bool {
	for i, item := range c.Items {
		if item.CatalogID == catalogID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.UnitPrice() * float64(item.Quantity)
	}
	return math.Round(total*100) / 100
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// AddItemRequest matches the body the bulk-order service sends per row.
// The quantity ceiling is sku.MaxLineQuantity.
type AddItemRequest struct {
	CatalogID       string  `json:"catalogId" binding:"required" validate:"required,max=64"`
	SKU             string  `json:"sku" validate:"max=64"`
	Description     string  `json:"description" validate:"max=2000"`
	Price           float64 `json:"price" validate:"gte=0"`
	Quantity        int     `json:"quantity" binding:"required" validate:"gte=1,lte=9999"`
	DiscountedPrice float64 `json:"discountedPrice" validate:"gte=0"`
	InStock         bool    `json:"inStock"`
}

func (r AddItemRequest) Item() CartItem {
	return CartItem{
		CatalogID:       r.CatalogID,
		SKU:             r.SKU,
		Description:     r.Description,
		Price:           r.Price,
		DiscountedPrice: r.DiscountedPrice,
		Quantity:        r.Quantity,
		InStock:         r.InStock,
	}
}

type CartResponse struct {
	*Cart
	Subtotal  float64 `json:"subtotal"`
	ItemCount int     `json:"item_count"`
}

func NewCartResponse(c *Cart) *CartResponse {
	return &CartResponse{Cart: c, Subtotal: c.Subtotal(), ItemCount: c.ItemCount()}
}
