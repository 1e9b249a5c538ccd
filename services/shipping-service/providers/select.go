package providers

import (
	"strings"

	"go.uber.org/zap"
)

// Select returns the Shippo provider when kind is "shippo" and an API key is
// configured, otherwise the demo rate table. The bool reports demo mode.
func Select(kind, shippoKey, shippoURL string, logger *zap.Logger) (ShippingProvider, bool) {
	if strings.EqualFold(kind, ShippoProviderName) {
		if shippoKey != "" {
			return NewShippoProvider(shippoKey, shippoURL), false
		}
		logger.Warn("FREIGHT_PROVIDER=shippo but SHIPPO_API_KEY is empty, using demo rates")
	}
	return NewDemoFreightProvider(), true
}
