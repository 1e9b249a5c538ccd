package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oemparts/storefront/services/cart-service/models"
	"github.com/redis/go-redis/v9"
)

var ErrConcurrentUpdate = errors.New("cart modified concurrently")

const maxUpdateAttempts = 8

type CartRepository struct {
	client  *redis.Client
	ttl     time.Duration
	idemTTL time.Duration
}

func NewCartRepository(client *redis.Client, ttl, idemTTL time.Duration) *CartRepository {
	return &CartRepository{
		client:  client,
		ttl:     ttl,
		idemTTL: idemTTL,
	}
}

func (r *CartRepository) getKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

func (r *CartRepository) getIdemKey(key string) string {
	return "idem:cart:" + key
}

// GetCart returns nil when the user has no cart.
func (r *CartRepository) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.getKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCart(data)
}

func decodeCart(data []byte) (*models.Cart, error) {
	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// UpdateCart applies fn to the user's cart under optimistic locking. A missing
// cart is passed to fn as an empty one. When idempotencyKey is non-empty and
// has been seen before, fn is skipped and applied is false.
func (r *CartRepository) UpdateCart(ctx context.Context, userID, idempotencyKey string, fn func(*models.Cart) error) (cart *models.Cart, applied bool, err error) {
	key := r.getKey(userID)
	watched := []string{key}
	if idempotencyKey != "" {
		watched = append(watched, r.getIdemKey(idempotencyKey))
	}

	txf := func(tx *redis.Tx) error {
		cart, applied = nil, false

		if idempotencyKey != "" {
			n, err := tx.Exists(ctx, r.getIdemKey(idempotencyKey)).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				c, err := r.readCart(ctx, tx, userID)
				if err != nil {
					return err
				}
				cart = c
				return nil
			}
		}

		current, err := r.readCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := fn(current); err != nil {
			return err
		}
		current.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			if idempotencyKey != "" {
				pipe.Set(ctx, r.getIdemKey(idempotencyKey), "1", r.idemTTL)
			}
			return nil
		})
		if err == nil {
			cart, applied = current, true
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err = r.client.Watch(ctx, txf, watched...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return cart, applied, err
	}
	return nil, false, ErrConcurrentUpdate
}

func (r *CartRepository) readCart(ctx context.Context, tx *redis.Tx, userID string) (*models.Cart, error) {
	data, err := tx.Get(ctx, r.getKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewCart(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCart(data)
}

func (r *CartRepository) DeleteCart(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.getKey(userID)).Err()
}
