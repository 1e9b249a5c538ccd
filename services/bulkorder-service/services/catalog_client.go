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

// CatalogValidator resolves SKUs against the catalog. A returned error means
// the round-trip itself failed; unknown SKUs are simply missing from the list.
type CatalogValidator interface {
	ValidateSKUs(ctx context.Context, skus []string, userID *string) ([]models.ValidationResult, error)
}

// CatalogRejectedError is a 4xx from the catalog: the request was understood
// and refused, so retrying it unchanged will not help.
type CatalogRejectedError struct {
	StatusCode int
	Message    string
}

func (e *CatalogRejectedError) Error() string {
	return fmt.Sprintf("catalog rejected validation (status %d): %s", e.StatusCode, e.Message)
}

// CatalogClient calls the catalog-service validation endpoint.
type CatalogClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewCatalogClient has no client-level timeout; callers bound each call with
// their context deadline.
func NewCatalogClient(baseURL string, logger *zap.Logger) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  logger,
	}
}

func (cc *CatalogClient) ValidateSKUs(ctx context.Context, skus []string, userID *string) ([]models.ValidationResult, error) {
	body, err := json.Marshal(models.ValidateSKUsRequest{SKUs: skus, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("encode validate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cc.baseURL+"/catalog/validate-skus", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(logger.RequestIDHeader, logger.RequestIDFrom(ctx))

	start := time.Now()
	resp, err := cc.client.Do(req)
	if err != nil {
		cc.logger.Warn("catalog validate call failed", zap.Int("sku_count", len(skus)), zap.Error(err))
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if rejectedStatus(resp.StatusCode) {
		return nil, &CatalogRejectedError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog validate returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var results []models.ValidationResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	cc.logger.Debug("catalog validate completed",
		zap.Int("sku_count", len(skus)),
		zap.Int("result_count", len(results)),
		zap.Duration("latency", time.Since(start)),
	)
	return results, nil
}
