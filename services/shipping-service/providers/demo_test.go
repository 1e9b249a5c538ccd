package providers_test

import (
	"context"
	"testing"

	"github.com/oemparts/storefront/services/shipping-service/models"
	"github.com/oemparts/storefront/services/shipping-service/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var origin = models.Address{PostalCode: "43215", Country: "US"}

func TestZone(t *testing.T) {
	cases := []struct {
		name       string
		dest       models.Address
		zone       int
		multiplier float64
		extraDays  int
	}{
		{"same region", models.Address{PostalCode: "43004", Country: "US"}, 0, 1.00, 0},
		{"lower digit", models.Address{PostalCode: "10001", Country: "US"}, 3, 1.45, 0},
		{"higher digit", models.Address{PostalCode: "94105", Country: "us"}, 5, 1.75, 0},
		{"unreadable postal code", models.Address{PostalCode: "K1A", Country: "US"}, 9, 2.35, 0},
		{"cross border", models.Address{PostalCode: "10001", Country: "CA"}, 9, 2.75, 6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			zone, multiplier, extra := providers.Zone(origin, tc.dest)
			assert.Equal(t, tc.zone, zone)
			assert.InDelta(t, tc.multiplier, multiplier, 1e-9)
			assert.Equal(t, tc.extraDays, extra)
		})
	}
}

func TestDemoFreightProvider_GetRates(t *testing.T) {
	p := providers.NewDemoFreightProvider()
	dest := models.Address{PostalCode: "10001", Country: "US"}

	rates, err := p.GetRates(context.Background(), 10, origin, dest)
	require.NoError(t, err)
	require.Len(t, rates, 2, "LTL needs at least 70kg")

	assert.Equal(t, "Ground", rates[0].ServiceLevel)
	assert.InDelta(t, 33.35, rates[0].Amount, 0.001)
	assert.Equal(t, 6, rates[0].EstimatedDays)
	assert.Equal(t, "demo_ground_z3", rates[0].RateID)
	assert.Equal(t, providers.DemoProviderName, rates[0].Provider)
	assert.Equal(t, "USD", rates[0].Currency)

	again, err := p.GetRates(context.Background(), 10, origin, dest)
	require.NoError(t, err)
	assert.Equal(t, rates, again)
}

func TestDemoFreightProvider_HeavyIncludesLTL(t *testing.T) {
	rates, err := providers.NewDemoFreightProvider().GetRates(context.Background(), 100, origin, models.Address{PostalCode: "43004", Country: "US"})
	require.NoError(t, err)
	require.Len(t, rates, 3)
	assert.Equal(t, "LTL Freight", rates[2].ServiceLevel)
	assert.InDelta(t, 140.0, rates[2].Amount, 0.001)
}

func TestDemoFreightProvider_International(t *testing.T) {
	rates, err := providers.NewDemoFreightProvider().GetRates(context.Background(), 10, origin, models.Address{PostalCode: "M5V", Country: "CA"})
	require.NoError(t, err)
	assert.InDelta(t, 63.25, rates[0].Amount, 0.001)
	assert.Equal(t, 14, rates[0].EstimatedDays)
}

func TestDemoFreightProvider_RejectsNonPositiveWeight(t *testing.T) {
	_, err := providers.NewDemoFreightProvider().GetRates(context.Background(), 0, origin, origin)
	assert.Error(t, err)
}
