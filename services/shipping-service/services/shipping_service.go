package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	aws_pkg "github.com/oemparts/storefront/pkg/aws"
	apperrors "github.com/oemparts/storefront/services/common/errors"
	"github.com/oemparts/storefront/services/shipping-service/models"
	"github.com/oemparts/storefront/services/shipping-service/providers"
	"github.com/oemparts/storefront/services/shipping-service/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const recentQuotesLimit = 20

var (
	ErrQuoteNotFound = apperrors.ErrNotFound.WithMessage("quote not found")
	ErrNoRates       = apperrors.ErrNotFound.WithMessage("no shipping rates available for the given destination")
	ErrProvider      = apperrors.ErrBadGateway.WithMessage("failed to retrieve shipping rates")
)

type ShippingService interface {
	GetRates(ctx context.Context, userID string, req *models.ShippingRatesRequest) (*models.RatesResponse, error)
	GetQuote(ctx context.Context, quoteID, userID string) (*models.RateQuote, error)
	ListQuotes(ctx context.Context, userID string) ([]models.RateQuote, error)
}

type shippingServiceImpl struct {
	repo       repository.QuoteRepository
	provider   providers.ShippingProvider
	demoMode   bool
	originAddr models.Address
	metrics    aws_pkg.MetricsRecorder
	logger     *zap.Logger
}

func NewShippingService(
	repo repository.QuoteRepository,
	provider providers.ShippingProvider,
	demoMode bool,
	originAddr models.Address,
	metrics aws_pkg.MetricsRecorder,
	logger *zap.Logger,
) ShippingService {
	if metrics == nil {
		metrics = (*aws_pkg.MetricsClient)(nil)
	}
	return &shippingServiceImpl{
		repo:       repo,
		provider:   provider,
		demoMode:   demoMode,
		originAddr: originAddr,
		metrics:    metrics,
		logger:     logger,
	}
}

// GetRates quotes the destination and returns rates cheapest first. The quote
// is recorded when possible; a storage failure only drops the quote id.
func (s *shippingServiceImpl) GetRates(ctx context.Context, userID string, req *models.ShippingRatesRequest) (*models.RatesResponse, error) {
	dest := req.Destination
	dest.Country = strings.ToUpper(strings.TrimSpace(dest.Country))
	dest.PostalCode = strings.TrimSpace(dest.PostalCode)

	rates, err := s.provider.GetRates(ctx, req.WeightKg, s.originAddr, dest)
	if err != nil {
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricShippingProviderError, map[string]string{"Provider": s.provider.Name()})
		s.logger.Error("GetRates failed", zap.String("provider", s.provider.Name()), zap.Error(err))
		return nil, ErrProvider.Wrap(err)
	}
	if len(rates) == 0 {
		return nil, ErrNoRates
	}

	sort.SliceStable(rates, func(i, j int) bool { return rates[i].Amount < rates[j].Amount })
	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricShippingQuotes, map[string]string{"Provider": s.provider.Name()})

	resp := &models.RatesResponse{Rates: rates, DemoMode: s.demoMode}

	quote := &models.RateQuote{
		ID:                 uuid.New(),
		UserID:             userID,
		DestinationPostal:  dest.PostalCode,
		DestinationCountry: dest.Country,
		WeightKg:           req.WeightKg,
		Provider:           s.provider.Name(),
		DemoMode:           s.demoMode,
		Rates:              rates,
	}
	if err := s.repo.Create(ctx, quote); err != nil {
		s.logger.Warn("Failed to store rate quote", zap.Error(err))
		return resp, nil
	}
	resp.QuoteID = quote.ID.String()
	return resp, nil
}

// GetQuote hides quotes owned by someone else behind not found. Anonymous
// quotes are readable by anyone holding the id.
func (s *shippingServiceImpl) GetQuote(ctx context.Context, quoteID, userID string) (*models.RateQuote, error) {
	id, err := uuid.Parse(quoteID)
	if err != nil {
		return nil, ErrQuoteNotFound
	}

	quote, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		s.logger.Error("Failed to load rate quote", zap.String("quote_id", quoteID), zap.Error(err))
		return nil, apperrors.ErrDatabaseQuery.Wrap(err)
	}
	if quote.UserID != "" && quote.UserID != userID {
		return nil, ErrQuoteNotFound
	}
	return quote, nil
}

func (s *shippingServiceImpl) ListQuotes(ctx context.Context, userID string) ([]models.RateQuote, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized.WithMessage("sign in to list quotes")
	}
	quotes, err := s.repo.FindByUser(ctx, userID, recentQuotesLimit)
	if err != nil {
		s.logger.Error("Failed to list rate quotes", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.ErrDatabaseQuery.Wrap(err)
	}
	return quotes, nil
}
