package services

import (
	"context"
	"math"

	aws_pkg "github.com/oemparts/storefront/pkg/aws"
	"github.com/oemparts/storefront/services/catalog-service/models"
	"github.com/oemparts/storefront/services/catalog-service/repository"
	apperrors "github.com/oemparts/storefront/services/common/errors"
	"github.com/oemparts/storefront/services/common/sku"
	"go.uber.org/zap"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	MaxValidateSKUs    = sku.MaxBatch
)

var ErrTooManySKUs = apperrors.ErrInvalidInput.WithMessage("Too many SKUs in one validation request")

type CatalogService interface {
	ValidateSKUs(ctx context.Context, skus []string, userID *string) ([]models.ValidationResult, error)
	Search(ctx context.Context, query string, page, limit int) (*models.SearchResponse, error)
}

type catalogServiceImpl struct {
	parts     repository.PartRepository
	discounts repository.DiscountRepository
	metrics   aws_pkg.MetricsRecorder
	logger    *zap.Logger
}

func NewCatalogService(parts repository.PartRepository, discounts repository.DiscountRepository, metrics aws_pkg.MetricsRecorder, logger *zap.Logger) CatalogService {
	if metrics == nil {
		metrics = (*aws_pkg.MetricsClient)(nil)
	}
	return &catalogServiceImpl{parts: parts, discounts: discounts, metrics: metrics, logger: logger}
}

// ValidateSKUs returns one result per known SKU, in first-seen request order.
func (s *catalogServiceImpl) ValidateSKUs(ctx context.Context, skus []string, userID *string) ([]models.ValidationResult, error) {
	if len(skus) > MaxValidateSKUs {
		return nil, ErrTooManySKUs
	}

	wanted := make([]string, 0, len(skus))
	seen := make(map[string]bool, len(skus))
	for _, raw := range skus {
		code := NormalizeSKU(raw)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		wanted = append(wanted, code)
	}
	if len(wanted) == 0 {
		return []models.ValidationResult{}, nil
	}

	parts, err := s.parts.FindBySKUs(ctx, wanted)
	if err != nil {
		s.logger.Error("failed to look up parts", zap.Int("sku_count", len(wanted)), zap.Error(err))
		return nil, apperrors.ErrDatabaseQuery.Wrap(err)
	}

	var pct float64
	if userID != nil && *userID != "" {
		pct, err = s.discounts.PercentFor(ctx, *userID)
		if err != nil {
			s.logger.Error("failed to load customer discount", zap.String("user_id", *userID), zap.Error(err))
			return nil, apperrors.ErrDatabaseQuery.Wrap(err)
		}
	}

	bySKU := make(map[string]models.Part, len(parts))
	for _, p := range parts {
		bySKU[p.SKU] = p
	}

	results := make([]models.ValidationResult, 0, len(bySKU))
	for _, code := range wanted {
		part, ok := bySKU[code]
		if !ok {
			continue
		}
		results = append(results, toValidationResult(part, pct))
	}

	_ = s.metrics.RecordValue(ctx, aws_pkg.MetricCatalogSKUsValidated, float64(len(wanted)), nil)
	s.logger.Debug("validated skus",
		zap.Int("requested", len(wanted)),
		zap.Int("known", len(results)),
	)
	return results, nil
}

func toValidationResult(p models.Part, discountPct float64) models.ValidationResult {
	discounted := DiscountedPrice(p.Price, discountPct)
	res := models.ValidationResult{
		SKU:             p.SKU,
		CatalogID:       p.ID.String(),
		Description:     p.Description,
		Price:           p.Price,
		DiscountedPrice: &discounted,
		InStock:         p.StockQty > 0,
		Status:          models.StatusOK,
	}
	switch {
	case !p.Active:
		res.Status = models.StatusError
		res.Message = models.MsgDiscontinued
	case p.StockQty <= 0:
		res.Status = models.StatusWarn
		res.Message = models.MsgOutOfStock
	}
	return res
}

// DiscountedPrice applies a percentage discount and rounds to cents. Percent
// outside 0..100 is clamped.
func DiscountedPrice(price, pct float64) float64 {
	pct = math.Max(0, math.Min(100, pct))
	if pct == 0 {
		return price
	}
	return math.Round(price*(1-pct/100)*100) / 100
}

func (s *catalogServiceImpl) Search(ctx context.Context, query string, page, limit int) (*models.SearchResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	parts, total, err := s.parts.Search(ctx, query, page, limit)
	if err != nil {
		s.logger.Error("catalog search failed", zap.String("query", query), zap.Error(err))
		return nil, apperrors.ErrDatabaseQuery.Wrap(err)
	}
	if parts == nil {
		parts = []models.Part{}
	}
	return &models.SearchResponse{Parts: parts, Total: total, Page: page, Limit: limit}, nil
}

// NormalizeSKU upper-cases a part number and drops everything outside
// A-Z, 0-9, '-' and '_', the same form bulk orders send.
func NormalizeSKU(raw string) string {
	return sku.Normalize(raw)
}
