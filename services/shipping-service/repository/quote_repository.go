package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/oemparts/storefront/services/shipping-service/models"
	"gorm.io/gorm"
)

// QuoteRepository stores freight quotes.
type QuoteRepository interface {
	Create(ctx context.Context, quote *models.RateQuote) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RateQuote, error)
	FindByUser(ctx context.Context, userID string, limit int) ([]models.RateQuote, error)
}

type GormQuoteRepository struct {
	db *gorm.DB
}

func NewGormQuoteRepository(db *gorm.DB) QuoteRepository {
	return &GormQuoteRepository{db: db}
}

func (r *GormQuoteRepository) Create(ctx context.Context, quote *models.RateQuote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.RateQuote, error) {
	var q models.RateQuote
	if err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// FindByUser returns the newest quotes first.
func (r *GormQuoteRepository) FindByUser(ctx context.Context, userID string, limit int) ([]models.RateQuote, error) {
	var quotes []models.RateQuote
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}
