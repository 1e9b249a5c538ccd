package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/oemparts/storefront/services/catalog-service/models"
	"gorm.io/gorm"
)

type ImportJobRepository interface {
	Create(ctx context.Context, job *models.ImportJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error)
	Update(ctx context.Context, job *models.ImportJob) error
}

type GormImportJobRepository struct {
	db *gorm.DB
}

func NewGormImportJobRepository(db *gorm.DB) ImportJobRepository {
	return &GormImportJobRepository{db: db}
}

func (r *GormImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *GormImportJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error) {
	var job models.ImportJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *GormImportJobRepository) Update(ctx context.Context, job *models.ImportJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}
