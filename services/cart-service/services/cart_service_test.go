package services_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/oemparts/storefront/services/cart-service/database"
	"github.com/oemparts/storefront/services/cart-service/models"
	"github.com/oemparts/storefront/services/cart-service/services"
	apperrors "github.com/oemparts/storefront/services/common/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	events []models.CheckoutEvent
	err    error
}

func (f *fakePublisher) SendCheckoutEvent(ctx context.Context, event models.CheckoutEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func setupService(t *testing.T, pub *fakePublisher) services.CartService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := database.NewCartRepository(client, time.Hour, time.Hour)
	return services.NewCartService(repo, pub, nil, zap.NewNop())
}

func addReq(catalogID string, qty int) models.AddItemRequest {
	return models.AddItemRequest{CatalogID: catalogID, SKU: "SKU-" + catalogID, Price: 10, DiscountedPrice: 9, Quantity: qty, InStock: true}
}

func TestGetCart_EmptyCart(t *testing.T) {
	svc := setupService(t, &fakePublisher{})
	cart, err := svc.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", cart.UserID)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Subtotal)
}

func TestAddItem_IdempotentReplay(t *testing.T) {
	svc := setupService(t, &fakePublisher{})
	ctx := context.Background()

	cart, applied, err := svc.AddItem(ctx, "u1", addReq("c1", 2), "s:r1:0")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 18.0, cart.Subtotal)

	cart, applied, err = svc.AddItem(ctx, "u1", addReq("c1", 2), "s:r1:0")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 2, cart.ItemCount)
}

func TestRemoveItem(t *testing.T) {
	svc := setupService(t, &fakePublisher{})
	ctx := context.Background()
	_, _, err := svc.AddItem(ctx, "u1", addReq("c1", 1), "")
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, "u1", "missing")
	assert.ErrorIs(t, err, services.ErrItemNotFound)

	cart, err := svc.RemoveItem(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCheckout(t *testing.T) {
	pub := &fakePublisher{}
	svc := setupService(t, pub)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Checkout(ctx, "u1"), services.ErrCartNotFound)

	_, _, err := svc.AddItem(ctx, "u1", addReq("c1", 2), "")
	require.NoError(t, err)
	require.NoError(t, svc.Checkout(ctx, "u1"))

	require.Len(t, pub.events, 1)
	assert.Equal(t, models.EventCheckoutRequested, pub.events[0].Event)
	assert.Equal(t, 18.0, pub.events[0].Subtotal)

	cart, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCheckout_PublishFailureKeepsCart(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := setupService(t, pub)
	ctx := context.Background()

	_, _, err := svc.AddItem(ctx, "u1", addReq("c1", 1), "")
	require.NoError(t, err)

	err = svc.Checkout(ctx, "u1")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.From(err).Code)

	cart, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc := setupService(t, &fakePublisher{})
	ctx := context.Background()

	_, _, err := svc.AddItem(ctx, "u1", addReq("c1", 1), "")
	require.NoError(t, err)
	_, err = svc.RemoveItem(ctx, "u1", "c1")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Checkout(ctx, "u1"), services.ErrEmptyCart)
}
