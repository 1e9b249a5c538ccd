package services_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/oemparts/storefront/services/catalog-service/models"
	"github.com/oemparts/storefront/services/catalog-service/services"
	apperrors "github.com/oemparts/storefront/services/common/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePartRepo struct {
	parts       map[string]models.Part
	findErr     error
	upserted    []models.Part
	upsertErr   error
	lastQuery   string
	lastPage    int
	lastLimit   int
	requestSKUs []string
}

func newFakePartRepo(parts ...models.Part) *fakePartRepo {
	r := &fakePartRepo{parts: map[string]models.Part{}}
	for _, p := range parts {
		r.parts[p.SKU] = p
	}
	return r
}

func (f *fakePartRepo) FindBySKUs(ctx context.Context, skus []string) ([]models.Part, error) {
	f.requestSKUs = skus
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []models.Part
	for _, sku := range skus {
		if p, ok := f.parts[sku]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePartRepo) Search(ctx context.Context, query string, page, limit int) ([]models.Part, int64, error) {
	f.lastQuery, f.lastPage, f.lastLimit = query, page, limit
	return nil, 0, nil
}

func (f *fakePartRepo) ExistingSKUs(ctx context.Context, skus []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, sku := range skus {
		if _, ok := f.parts[sku]; ok {
			out[sku] = true
		}
	}
	return out, nil
}

func (f *fakePartRepo) Upsert(ctx context.Context, parts []models.Part) (int64, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.upserted = append(f.upserted, parts...)
	for _, p := range parts {
		f.parts[p.SKU] = p
	}
	return int64(len(parts)), nil
}

type fakeDiscounts map[string]float64

func (f fakeDiscounts) PercentFor(ctx context.Context, userID string) (float64, error) {
	return f[userID], nil
}

func part(sku string, price float64, stock int, active bool) models.Part {
	return models.Part{ID: uuid.New(), SKU: sku, Description: sku + " desc", Price: price, StockQty: stock, Active: active}
}

func strPtr(s string) *string { return &s }

func TestValidateSKUs_Statuses(t *testing.T) {
	repo := newFakePartRepo(
		part("ABC123", 10, 5, true),
		part("OUT-1", 20, 0, true),
		part("OLD-9", 30, 10, false),
	)
	svc := services.NewCatalogService(repo, fakeDiscounts{}, nil, zap.NewNop())

	results, err := svc.ValidateSKUs(context.Background(), []string{"abc123", "OUT-1", "OLD-9", "NOPE"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "ABC123", results[0].SKU)
	assert.Equal(t, models.StatusOK, results[0].Status)
	assert.True(t, results[0].InStock)
	assert.Empty(t, results[0].Message)
	require.NotNil(t, results[0].DiscountedPrice)
	assert.Equal(t, 10.0, *results[0].DiscountedPrice)

	assert.Equal(t, models.StatusWarn, results[1].Status)
	assert.Equal(t, models.MsgOutOfStock, results[1].Message)
	assert.False(t, results[1].InStock)

	assert.Equal(t, models.StatusError, results[2].Status)
	assert.Equal(t, models.MsgDiscontinued, results[2].Message)
}

func TestValidateSKUs_DedupesRequest(t *testing.T) {
	repo := newFakePartRepo(part("ABC123", 10, 5, true))
	svc := services.NewCatalogService(repo, fakeDiscounts{}, nil, zap.NewNop())

	results, err := svc.ValidateSKUs(context.Background(), []string{"ABC123", " abc123 ", ""}, nil)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, []string{"ABC123"}, repo.requestSKUs)
}

func TestValidateSKUs_CustomerDiscount(t *testing.T) {
	repo := newFakePartRepo(part("ABC123", 19.99, 5, true))
	svc := services.NewCatalogService(repo, fakeDiscounts{"user-1": 15}, nil, zap.NewNop())

	results, err := svc.ValidateSKUs(context.Background(), []string{"ABC123"}, strPtr("user-1"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 19.99, results[0].Price)
	assert.Equal(t, 16.99, *results[0].DiscountedPrice)
}

func TestValidateSKUs_EmptyInput(t *testing.T) {
	svc := services.NewCatalogService(newFakePartRepo(), fakeDiscounts{}, nil, zap.NewNop())
	results, err := svc.ValidateSKUs(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestValidateSKUs_RepositoryFailure(t *testing.T) {
	repo := newFakePartRepo()
	repo.findErr = errors.New("connection refused")
	svc := services.NewCatalogService(repo, fakeDiscounts{}, nil, zap.NewNop())

	_, err := svc.ValidateSKUs(context.Background(), []string{"A"}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.From(err).Code)
}

func TestValidateSKUs_TooMany(t *testing.T) {
	svc := services.NewCatalogService(newFakePartRepo(), fakeDiscounts{}, nil, zap.NewNop())
	_, err := svc.ValidateSKUs(context.Background(), make([]string, services.MaxValidateSKUs+1), nil)
	assert.ErrorIs(t, err, services.ErrTooManySKUs)
}

func TestDiscountedPrice(t *testing.T) {
	assert.Equal(t, 100.0, services.DiscountedPrice(100, 0))
	assert.Equal(t, 90.0, services.DiscountedPrice(100, 10))
	assert.Equal(t, 0.0, services.DiscountedPrice(100, 150))
	assert.Equal(t, 100.0, services.DiscountedPrice(100, -5))
	assert.Equal(t, 8.49, services.DiscountedPrice(9.99, 15))
}

func TestSearch_ClampsPaging(t *testing.T) {
	repo := newFakePartRepo()
	svc := services.NewCatalogService(repo, fakeDiscounts{}, nil, zap.NewNop())

	resp, err := svc.Search(context.Background(), "filter", 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lastPage)
	assert.Equal(t, services.MaxSearchLimit, repo.lastLimit)
	assert.NotNil(t, resp.Parts)
}
