package repository

import (
	"context"
	"strings"

	"github.com/oemparts/storefront/services/catalog-service/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartRepository defines data-access operations for catalog parts.
type PartRepository interface {
	FindBySKUs(ctx context.Context, skus []string) ([]models.Part, error)
	Search(ctx context.Context, query string, page, limit int) ([]models.Part, int64, error)
	ExistingSKUs(ctx context.Context, skus []string) (map[string]bool, error)
	Upsert(ctx context.Context, parts []models.Part) (int64, error)
}

type GormPartRepository struct {
	db *gorm.DB
}

func NewGormPartRepository(db *gorm.DB) PartRepository {
	return &GormPartRepository{db: db}
}

// FindBySKUs returns active and inactive parts; soft-deleted parts are
// treated as unknown.
func (r *GormPartRepository) FindBySKUs(ctx context.Context, skus []string) ([]models.Part, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var parts []models.Part
	if err := r.db.WithContext(ctx).
		Where("sku IN ?", skus).
		Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

func (r *GormPartRepository) Search(ctx context.Context, query string, page, limit int) ([]models.Part, int64, error) {
	var parts []models.Part
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Part{}).Where("active = ?", true)
	if term := strings.TrimSpace(query); term != "" {
		like := "%" + escapeLike(term) + "%"
		q = q.Where("sku ILIKE ? OR description ILIKE ?", like, like)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.
		Offset(offset).Limit(limit).
		Order("sku ASC").
		Find(&parts).Error; err != nil {
		return nil, 0, err
	}
	return parts, total, nil
}

func (r *GormPartRepository) ExistingSKUs(ctx context.Context, skus []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(skus) == 0 {
		return existing, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).
		Model(&models.Part{}).
		Where("sku IN ?", skus).
		Pluck("sku", &found).Error; err != nil {
		return nil, err
	}
	for _, sku := range found {
		existing[sku] = true
	}
	return existing, nil
}

// Upsert inserts parts, updating the mutable columns of rows whose SKU
// already exists.
func (r *GormPartRepository) Upsert(ctx context.Context, parts []models.Part) (int64, error) {
	if len(parts) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "manufacturer", "price", "stock_qty", "active", "updated_at"}),
		}).
		CreateInBatches(&parts, 500)
	return res.RowsAffected, res.Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
