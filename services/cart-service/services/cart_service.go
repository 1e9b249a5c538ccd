package services

import (
	"context"
	"errors"
	"time"

	aws_pkg "github.com/oemparts/storefront/pkg/aws"
	"github.com/oemparts/storefront/services/cart-service/database"
	"github.com/oemparts/storefront/services/cart-service/kafka"
	"github.com/oemparts/storefront/services/cart-service/models"
	apperrors "github.com/oemparts/storefront/services/common/errors"
	"go.uber.org/zap"
)

var (
	ErrCartNotFound = apperrors.ErrNotFound.WithMessage("cart not found")
	ErrItemNotFound = apperrors.ErrNotFound.WithMessage("item not in cart")
	ErrEmptyCart    = apperrors.ErrConflict.WithMessage("cart is empty")
	ErrCartBusy     = apperrors.ErrConflict.WithMessage("cart is being modified, please retry")
)

// CartStore is the persistence the service needs; *database.CartRepository
// implements it.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	UpdateCart(ctx context.Context, userID, idempotencyKey string, fn func(*models.Cart) error) (*models.Cart, bool, error)
	DeleteCart(ctx context.Context, userID string) error
}

type CartService interface {
	GetCart(ctx context.Context, userID string) (*models.CartResponse, error)
	AddItem(ctx context.Context, userID string, req models.AddItemRequest, idempotencyKey string) (*models.CartResponse, bool, error)
	RemoveItem(ctx context.Context, userID, catalogID string) (*models.CartResponse, error)
	ClearCart(ctx context.Context, userID string) error
	Checkout(ctx context.Context, userID string) error
}

type cartServiceImpl struct {
	store     CartStore
	publisher kafka.EventPublisher
	metrics   aws_pkg.MetricsRecorder
	logger    *zap.Logger
}

func NewCartService(store CartStore, publisher kafka.EventPublisher, metrics aws_pkg.MetricsRecorder, logger *zap.Logger) CartService {
	if metrics == nil {
		metrics = (*aws_pkg.MetricsClient)(nil)
	}
	return &cartServiceImpl{store: store, publisher: publisher, metrics: metrics, logger: logger}
}

func (s *cartServiceImpl) GetCart(ctx context.Context, userID string) (*models.CartResponse, error) {
	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get cart", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.ErrInternalServer.Wrap(err)
	}
	if cart == nil {
		cart = models.NewCart(userID)
	}
	return models.NewCartResponse(cart), nil
}

// AddItem merges one item into the cart. The bool result is false when the
// idempotency key was already used and nothing changed.
func (s *cartServiceImpl) AddItem(ctx context.Context, userID string, req models.AddItemRequest, idempotencyKey string) (*models.CartResponse, bool, error) {
	cart, applied, err := s.store.UpdateCart(ctx, userID, idempotencyKey, func(c *models.Cart) error {
		c.Add(req.Item())
		return nil
	})
	if err != nil {
		return nil, false, s.mapStoreError(err, userID)
	}

	if applied {
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricCartItemsAdded, nil)
		s.logger.Info("cart item added",
			zap.String("user_id", userID),
			zap.String("catalog_id", req.CatalogID),
			zap.Int("quantity", req.Quantity),
		)
	} else {
		s.logger.Info("duplicate add ignored", zap.String("user_id", userID), zap.String("idempotency_key", idempotencyKey))
	}
	return models.NewCartResponse(cart), applied, nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, catalogID string) (*models.CartResponse, error) {
	cart, _, err := s.store.UpdateCart(ctx, userID, "", func(c *models.Cart) error {
		if !c.Remove(catalogID) {
			return ErrItemNotFound
		}
		return nil
	})
	if err != nil {
		return nil, s.mapStoreError(err, userID)
	}
	return models.NewCartResponse(cart), nil
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, userID string) error {
	if err := s.store.DeleteCart(ctx, userID); err != nil {
		s.logger.Error("failed to clear cart", zap.String("user_id", userID), zap.Error(err))
		return apperrors.ErrInternalServer.Wrap(err)
	}
	return nil
}

// Checkout publishes the cart and then clears it. The cart is kept when the
// publish fails.
func (s *cartServiceImpl) Checkout(ctx context.Context, userID string) error {
	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return apperrors.ErrInternalServer.Wrap(err)
	}
	if cart == nil {
		return ErrCartNotFound
	}
	if len(cart.Items) == 0 {
		return ErrEmptyCart
	}
	if s.publisher == nil {
		return apperrors.ErrServiceUnavailable.WithMessage("checkout is unavailable")
	}

	event := models.CheckoutEvent{
		Event:     models.EventCheckoutRequested,
		UserID:    userID,
		Items:     cart.Items,
		Subtotal:  cart.Subtotal(),
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.SendCheckoutEvent(ctx, event); err != nil {
		s.logger.Error("failed to publish checkout event", zap.String("user_id", userID), zap.Error(err))
		return apperrors.ErrBadGateway.WithMessage("failed to publish checkout event").Wrap(err)
	}
	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricCartCheckouts, nil)

	if err := s.store.DeleteCart(ctx, userID); err != nil {
		s.logger.Warn("checkout published but cart not cleared", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

func (s *cartServiceImpl) mapStoreError(err error, userID string) error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, database.ErrConcurrentUpdate):
		return ErrCartBusy
	default:
		s.logger.Error("cart update failed", zap.String("user_id", userID), zap.Error(err))
		return apperrors.ErrInternalServer.Wrap(err)
	}
}
