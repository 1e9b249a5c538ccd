package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	aws_pkg "github.com/oemparts/storefront/pkg/aws"
	"github.com/oemparts/storefront/services/catalog-service/models"
	"github.com/oemparts/storefront/services/catalog-service/repository"
	apperrors "github.com/oemparts/storefront/services/common/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrImportJobNotFound  = apperrors.ErrNotFound.WithMessage("Import job not found")
	ErrAsyncImportOffline = apperrors.ErrServiceUnavailable.WithMessage("Asynchronous import is not configured")
)

const importObjectPrefix = "catalog-imports/"

// URLPresigner issues temporary download links for staged CSV files.
type URLPresigner interface {
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type ImportService interface {
	ValidateImport(ctx context.Context, r io.Reader) (*models.ImportValidation, error)
	Import(ctx context.Context, r io.Reader) (*models.ImportResult, error)
	EnqueueImport(ctx context.Context, filename string, data []byte) (*models.ImportJob, error)
	GetJob(ctx context.Context, id uuid.UUID) (*models.ImportJob, error)
	HandleJobMessage(ctx context.Context, body string) error
}

// ImportDeps groups the optional AWS collaborators. Without Store and Queue
// only synchronous imports are available.
type ImportDeps struct {
	Store     aws_pkg.ObjectStore
	Queue     aws_pkg.QueueSender
	Presigner URLPresigner
	Metrics   aws_pkg.MetricsRecorder
}

type importServiceImpl struct {
	parts    repository.PartRepository
	jobs     repository.ImportJobRepository
	deps     ImportDeps
	validate *validator.Validate
	logger   *zap.Logger
}

func NewImportService(parts repository.PartRepository, jobs repository.ImportJobRepository, deps ImportDeps, logger *zap.Logger) ImportService {
	if deps.Metrics == nil {
		deps.Metrics = (*aws_pkg.MetricsClient)(nil)
	}
	return &importServiceImpl{
		parts:    parts,
		jobs:     jobs,
		deps:     deps,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *importServiceImpl) ValidateImport(ctx context.Context, r io.Reader) (*models.ImportValidation, error) {
	parsed, err := parseCatalogCSV(r, s.validate)
	if err != nil {
		return nil, apperrors.ErrValidation.WithMessage(err.Error())
	}

	skus := make([]string, 0, len(parsed.rows))
	for _, row := range parsed.rows {
		skus = append(skus, row.SKU)
	}
	existing, err := s.parts.ExistingSKUs(ctx, skus)
	if err != nil {
		return nil, apperrors.ErrDatabaseQuery.Wrap(err)
	}

	v := &models.ImportValidation{
		TotalRows:     parsed.total,
		ValidRows:     parsed.total - len(parsed.errors),
		InvalidRows:   len(parsed.errors),
		DuplicateSKUs: nonNil(parsed.duplicates),
		Errors:        nonNilErrors(parsed.errors),
	}
	for _, sku := range skus {
		if existing[sku] {
			v.UpdatedSKUs++
		} else {
			v.NewSKUs++
		}
	}
	return v, nil
}

func (s *importServiceImpl) Import(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	parsed, err := parseCatalogCSV(r, s.validate)
	if err != nil {
		return nil, apperrors.ErrValidation.WithMessage(err.Error())
	}

	parts := make([]models.Part, 0, len(parsed.rows))
	for _, row := range parsed.rows {
		parts = append(parts, models.Part{
			ID:           uuid.New(),
			SKU:          row.SKU,
			Description:  row.Description,
			Manufacturer: row.Manufacturer,
			Price:        row.Price,
			StockQty:     row.StockQty,
			Active:       row.Active,
		})
	}

	if _, err := s.parts.Upsert(ctx, parts); err != nil {
		s.logger.Error("catalog upsert failed", zap.Int("rows", len(parts)), zap.Error(err))
		_ = s.deps.Metrics.RecordCount(ctx, aws_pkg.MetricCatalogImportFailed, nil)
		return nil, apperrors.ErrDatabaseQuery.Wrap(err)
	}
	_ = s.deps.Metrics.RecordValue(ctx, aws_pkg.MetricCatalogImportRows, float64(len(parts)), nil)

	s.logger.Info("catalog import completed",
		zap.Int("upserted", len(parts)),
		zap.Int("errors", len(parsed.errors)),
	)
	return &models.ImportResult{
		UpsertedCount: len(parts),
		ErrorsCount:   len(parsed.errors),
		Errors:        nonNilErrors(parsed.errors),
		Message:       fmt.Sprintf("%d parts imported, %d rows rejected", len(parts), len(parsed.errors)),
	}, nil
}

// EnqueueImport stages the CSV in S3, records a job row and announces it on
// SQS. The job is marked failed if the message cannot be sent.
func (s *importServiceImpl) EnqueueImport(ctx context.Context, filename string, data []byte) (*models.ImportJob, error) {
	if s.deps.Store == nil || s.deps.Queue == nil {
		return nil, ErrAsyncImportOffline
	}

	job := &models.ImportJob{
		ID:       uuid.New(),
		Filename: filename,
		Status:   models.ImportJobQueued,
	}
	job.ObjectKey = importObjectPrefix + job.ID.String() + ".csv"

	if err := s.deps.Store.PutObject(ctx, job.ObjectKey, data, "text/csv"); err != nil {
		s.logger.Error("failed to stage import file", zap.String("key", job.ObjectKey), zap.Error(err))
		return nil, apperrors.ErrServiceUnavailable.Wrap(err)
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, apperrors.ErrDatabaseQuery.Wrap(err)
	}

	msg, _ := json.Marshal(models.ImportJobMessage{JobID: job.ID.String(), ObjectKey: job.ObjectKey})
	if err := s.deps.Queue.SendMessage(ctx, string(msg)); err != nil {
		s.logger.Error("failed to enqueue import job", zap.String("job_id", job.ID.String()), zap.Error(err))
		job.Status = models.ImportJobFailed
		job.Error = "failed to enqueue job"
		_ = s.jobs.Update(ctx, job)
		return nil, apperrors.ErrServiceUnavailable.Wrap(err)
	}

	s.logger.Info("catalog import queued", zap.String("job_id", job.ID.String()), zap.Int("bytes", len(data)))
	return job, nil
}

func (s *importServiceImpl) GetJob(ctx context.Context, id uuid.UUID) (*models.ImportJob, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImportJobNotFound
	}
	if err != nil {
		return nil, apperrors.ErrDatabaseQuery.Wrap(err)
	}

	if s.deps.Presigner != nil && job.ObjectKey != "" {
		if url, err := s.deps.Presigner.PresignGet(ctx, job.ObjectKey, 15*time.Minute); err == nil {
			job.SourceURL = url
		} else {
			s.logger.Warn("failed to presign import file", zap.String("job_id", id.String()), zap.Error(err))
		}
	}
	return job, nil
}

// HandleJobMessage processes one queued import. Malformed messages and
// unknown jobs are acknowledged and dropped; storage and database failures
// are returned so the message is redelivered.
func (s *importServiceImpl) HandleJobMessage(ctx context.Context, body string) error {
	var msg models.ImportJobMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		s.logger.Warn("dropping malformed import message", zap.Error(err))
		return nil
	}
	id, err := uuid.Parse(msg.JobID)
	if err != nil {
		s.logger.Warn("dropping import message with bad job id", zap.String("job_id", msg.JobID))
		return nil
	}

	job, err := s.jobs.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("dropping import message for unknown job", zap.String("job_id", msg.JobID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load import job: %w", err)
	}
	if job.Status == models.ImportJobDone {
		return nil
	}

	job.Status = models.ImportJobProcessing
	if err := s.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}

	data, err := s.deps.Store.GetObject(ctx, job.ObjectKey)
	if err != nil {
		return fmt.Errorf("fetch import file: %w", err)
	}

	result, err := s.Import(ctx, bytes.NewReader(data))
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) && appErr.Code < 500 {
			job.Status = models.ImportJobFailed
			job.Error = appErr.Message
			return s.jobs.Update(ctx, job)
		}
		return fmt.Errorf("process import: %w", err)
	}

	job.Status = models.ImportJobDone
	job.Result = result
	job.Error = ""
	if err := s.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("mark job done: %w", err)
	}
	s.logger.Info("catalog import job finished", zap.String("job_id", msg.JobID), zap.Int("upserted", result.UpsertedCount))
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilErrors(e []models.ImportRowError) []models.ImportRowError {
	if e == nil {
		return []models.ImportRowError{}
	}
	return e
}
