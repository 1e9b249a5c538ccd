package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/oemparts/storefront/services/shipping-service/models"
	"github.com/oemparts/storefront/services/shipping-service/providers"
	"github.com/oemparts/storefront/services/shipping-service/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeQuoteRepo struct {
	quotes    map[uuid.UUID]*models.RateQuote
	createErr error
	findErr   error
}

func newFakeQuoteRepo() *fakeQuoteRepo {
	return &fakeQuoteRepo{quotes: map[uuid.UUID]*models.RateQuote{}}
}

func (r *fakeQuoteRepo) Create(_ context.Context, q *models.RateQuote) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.quotes[q.ID] = q
	return nil
}

func (r *fakeQuoteRepo) FindByID(_ context.Context, id uuid.UUID) (*models.RateQuote, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	q, ok := r.quotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (r *fakeQuoteRepo) FindByUser(_ context.Context, userID string, limit int) ([]models.RateQuote, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []models.RateQuote
	for _, q := range r.quotes {
		if q.UserID == userID {
			out = append(out, *q)
		}
	}
	return out, nil
}

type stubProvider struct {
	rates []models.ShippingRate
	err   error
	dest  models.Address
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) GetRates(_ context.Context, _ float64, _, dest models.Address) ([]models.ShippingRate, error) {
	p.dest = dest
	return p.rates, p.err
}

var warehouse = models.Address{PostalCode: "43215", Country: "US"}

func rateRequest(postal, country string, kg float64) *models.ShippingRatesRequest {
	return &models.ShippingRatesRequest{WeightKg: kg, Destination: models.Address{PostalCode: postal, Country: country}}
}

func TestGetRates_SortedAndRecorded(t *testing.T) {
	repo := newFakeQuoteRepo()
	svc := services.NewShippingService(repo, providers.NewDemoFreightProvider(), true, warehouse, nil, zap.NewNop())

	resp, err := svc.GetRates(context.Background(), "user-1", rateRequest("43004", "us", 100))
	require.NoError(t, err)
	assert.True(t, resp.DemoMode)
	require.Len(t, resp.Rates, 3)
	for i := 1; i < len(resp.Rates); i++ {
		assert.LessOrEqual(t, resp.Rates[i-1].Amount, resp.Rates[i].Amount)
	}
	assert.Equal(t, "Ground", resp.Rates[0].ServiceLevel)
	assert.Equal(t, "LTL Freight", resp.Rates[1].ServiceLevel)

	require.NotEmpty(t, resp.QuoteID)
	stored := repo.quotes[uuid.MustParse(resp.QuoteID)]
	require.NotNil(t, stored)
	assert.Equal(t, "US", stored.DestinationCountry)
	assert.Equal(t, "user-1", stored.UserID)
	assert.Equal(t, providers.DemoProviderName, stored.Provider)
}

func TestGetRates_NormalizesDestination(t *testing.T) {
	p := &stubProvider{rates: []models.ShippingRate{{Amount: 5}}}
	svc := services.NewShippingService(newFakeQuoteRepo(), p, false, warehouse, nil, zap.NewNop())

	_, err := svc.GetRates(context.Background(), "", rateRequest(" 10001 ", " ca", 1))
	require.NoError(t, err)
	assert.Equal(t, "10001", p.dest.PostalCode)
	assert.Equal(t, "CA", p.dest.Country)
}

func TestGetRates_ProviderError(t *testing.T) {
	svc := services.NewShippingService(newFakeQuoteRepo(), &stubProvider{err: errors.New("timeout")}, false, warehouse, nil, zap.NewNop())

	_, err := svc.GetRates(context.Background(), "u", rateRequest("10001", "US", 1))
	assert.ErrorIs(t, err, services.ErrProvider)
}

func TestGetRates_NoRates(t *testing.T) {
	svc := services.NewShippingService(newFakeQuoteRepo(), &stubProvider{}, false, warehouse, nil, zap.NewNop())

	_, err := svc.GetRates(context.Background(), "u", rateRequest("10001", "US", 1))
	assert.ErrorIs(t, err, services.ErrNoRates)
}

func TestGetRates_StoreFailureStillReturnsRates(t *testing.T) {
	repo := newFakeQuoteRepo()
	repo.createErr = errors.New("db down")
	svc := services.NewShippingService(repo, providers.NewDemoFreightProvider(), true, warehouse, nil, zap.NewNop())

	resp, err := svc.GetRates(context.Background(), "u", rateRequest("10001", "US", 1))
	require.NoError(t, err)
	assert.Empty(t, resp.QuoteID)
	assert.NotEmpty(t, resp.Rates)
}

func TestGetQuote_Ownership(t *testing.T) {
	repo := newFakeQuoteRepo()
	svc := services.NewShippingService(repo, providers.NewDemoFreightProvider(), true, warehouse, nil, zap.NewNop())
	ctx := context.Background()

	owned, err := svc.GetRates(ctx, "user-1", rateRequest("10001", "US", 1))
	require.NoError(t, err)
	guest, err := svc.GetRates(ctx, "", rateRequest("10001", "US", 1))
	require.NoError(t, err)

	q, err := svc.GetQuote(ctx, owned.QuoteID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, owned.QuoteID, q.ID.String())

	_, err = svc.GetQuote(ctx, owned.QuoteID, "user-2")
	assert.ErrorIs(t, err, services.ErrQuoteNotFound)

	_, err = svc.GetQuote(ctx, guest.QuoteID, "anyone")
	assert.NoError(t, err)

	_, err = svc.GetQuote(ctx, "not-a-uuid", "user-1")
	assert.ErrorIs(t, err, services.ErrQuoteNotFound)

	_, err = svc.GetQuote(ctx, uuid.NewString(), "user-1")
	assert.ErrorIs(t, err, services.ErrQuoteNotFound)
}

func TestListQuotes(t *testing.T) {
	repo := newFakeQuoteRepo()
	svc := services.NewShippingService(repo, providers.NewDemoFreightProvider(), true, warehouse, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ListQuotes(ctx, "")
	assert.Error(t, err)

	_, err = svc.GetRates(ctx, "user-1", rateRequest("10001", "US", 1))
	require.NoError(t, err)

	quotes, err := svc.ListQuotes(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, quotes, 1)
}
