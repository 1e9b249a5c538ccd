package providers

import (
	"context"

	"github.com/oemparts/storefront/services/shipping-service/models"
)

// ShippingProvider quotes freight for a single consignment.
type ShippingProvider interface {
	Name() string
	GetRates(ctx context.Context, weightKg float64, origin, destination models.Address) ([]models.ShippingRate, error)
}
