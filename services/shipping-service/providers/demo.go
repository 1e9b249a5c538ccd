package providers

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/oemparts/storefront/services/shipping-service/models"
)

const DemoProviderName = "DEMO MODE"

type demoService struct {
	code      string
	name      string
	base      float64
	perKg     float64
	days      int
	minWeight float64
}

var demoServices = []demoService{
	{code: "ground", name: "Ground", base: 12.00, perKg: 1.10, days: 5},
	{code: "expedited", name: "Expedited", base: 24.00, perKg: 1.85, days: 2},
	{code: "ltl", name: "LTL Freight", base: 95.00, perKg: 0.45, days: 4, minWeight: 70},
}

// zoneMultipliers is indexed by the distance between the first digits of the
// origin and destination postal codes.
var zoneMultipliers = [10]float64{1.00, 1.15, 1.30, 1.45, 1.60, 1.75, 1.90, 2.05, 2.20, 2.35}

const (
	internationalMultiplier = 2.75
	internationalExtraDays  = 6
)

// DemoFreightProvider prices from fixed tables so quotes work without a
// carrier account. Results are deterministic for the same input.
type DemoFreightProvider struct{}

func NewDemoFreightProvider() *DemoFreightProvider {
	return &DemoFreightProvider{}
}

func (p *DemoFreightProvider) Name() string { return DemoProviderName }

func (p *DemoFreightProvider) GetRates(ctx context.Context, weightKg float64, origin, destination models.Address) ([]models.ShippingRate, error) {
	if weightKg <= 0 {
		return nil, fmt.Errorf("weight must be positive, got %v", weightKg)
	}

	zone, multiplier, extraDays := Zone(origin, destination)
	rates := make([]models.ShippingRate, 0, len(demoServices))
	for _, svc := range demoServices {
		if weightKg < svc.minWeight {
			continue
		}
		amount := (svc.base + svc.perKg*weightKg) * multiplier
		rates = append(rates, models.ShippingRate{
			Provider:      DemoProviderName,
			ServiceLevel:  svc.name,
			Amount:        math.Round(amount*100) / 100,
			Currency:      "USD",
			EstimatedDays: svc.days + zone/3 + extraDays,
			RateID:        fmt.Sprintf("demo_%s_z%d", svc.code, zone),
		})
	}
	return rates, nil
}

// Zone returns the zone number, price multiplier and extra transit days for a
// lane. Cross-border lanes and unreadable postal codes land in the farthest
// zone.
func Zone(origin, destination models.Address) (zone int, multiplier float64, extraDays int) {
	farthest := len(zoneMultipliers) - 1
	if !strings.EqualFold(strings.TrimSpace(origin.Country), strings.TrimSpace(destination.Country)) {
		return farthest, internationalMultiplier, internationalExtraDays
	}

	from, ok1 := leadingDigit(origin.PostalCode)
	to, ok2 := leadingDigit(destination.PostalCode)
	if !ok1 || !ok2 {
		return farthest, zoneMultipliers[farthest], 0
	}

	zone = to - from
	if zone < 0 {
		zone = -zone
	}
	return zone, zoneMultipliers[zone], 0
}

func leadingDigit(postal string) (int, bool) {
	postal = strings.TrimSpace(postal)
	if postal == "" || postal[0] < '0' || postal[0] > '9' {
		return 0, false
	}
	return int(postal[0] - '0'), true
}
