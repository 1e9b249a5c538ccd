package repository

import (
	"context"
	"errors"

	"github.com/oemparts/storefront/services/catalog-service/models"
	"gorm.io/gorm"
)

type DiscountRepository interface {
	// PercentFor returns the customer's discount, or 0 when none is set.
	PercentFor(ctx context.Context, userID string) (float64, error)
}

type GormDiscountRepository struct {
	db *gorm.DB
}

func NewGormDiscountRepository(db *gorm.DB) DiscountRepository {
	return &GormDiscountRepository{db: db}
}

func (r *GormDiscountRepository) PercentFor(ctx context.Context, userID string) (float64, error) {
	var d models.CustomerDiscount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return d.Percent, nil
}
