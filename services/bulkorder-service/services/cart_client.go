package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oemparts/storefront/services/bulkorder-service/models"
	"github.com/oemparts/storefront/services/common/logger"
	"go.uber.org/zap"
)

// CartInserter adds one line item to a shopper's cart. Calls sharing an
// idempotency key are applied at most once.
type CartInserter interface {
	AddItem(ctx context.Context, cartOwner string, item models.CartInsertion, idempotencyKey string) error
}

// CartRejectedError is a 4xx from the cart refusing the item itself.
// Resending the same row will not succeed.
type CartRejectedError struct {
	StatusCode int
	Message    string
}

func (e *CartRejectedError) Error() string {
	return fmt.Sprintf("cart rejected item (status %d): %s", e.StatusCode, e.Message)
}

// CartClient calls the cart-service HTTP API.
type CartClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewCartClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CartClient {
	return &CartClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (cc *CartClient) AddItem(ctx context.Context, cartOwner string, item models.CartInsertion, idempotencyKey string) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode cart item: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cc.baseURL+"/cart/items", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", cartOwner)
	req.Header.Set("Idempotency-Key", idempotencyKey)
	req.Header.Set(logger.RequestIDHeader, logger.RequestIDFrom(ctx))

	resp, err := cc.client.Do(req)
	if err != nil {
		cc.logger.Warn("cart AddItem call failed", zap.String("sku", item.SKU), zap.Error(err))
		return fmt.Errorf("cart request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		if rejectedStatus(resp.StatusCode) {
			return &CartRejectedError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
		}
		return fmt.Errorf("cart AddItem returned status %d", resp.StatusCode)
	}
	return nil
}

// rejectedStatus reports 4xx answers that are about the request itself.
// Timeouts, conflicts and rate limiting are worth retrying.
func rejectedStatus(code int) bool {
	if code < 400 || code >= 500 {
		return false
	}
	switch code {
	case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
		return false
	}
	return true
}

// errorMessage reads the {"error": "..."} body the services answer with.
func errorMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}
