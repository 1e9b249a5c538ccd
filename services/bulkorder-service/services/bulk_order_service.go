package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	aws_pkg "github.com/oemparts/storefront/pkg/aws"
	"github.com/oemparts/storefront/services/bulkorder-service/models"
	"github.com/oemparts/storefront/services/bulkorder-service/parser"
	"github.com/oemparts/storefront/services/bulkorder-service/repository"
	apperrors "github.com/oemparts/storefront/services/common/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrSessionNotFound     = apperrors.ErrNotFound.WithMessage("Bulk order session not found")
	ErrRowNotFound         = apperrors.ErrNotFound.WithMessage("Row not found")
	ErrNothingToCommit     = apperrors.ErrConflict.WithMessage("No rows are ready to add to the cart")
	ErrValidationBusy      = apperrors.ErrConflict.WithMessage("Validation already in progress")
	ErrValidationFailed    = apperrors.ErrBadGateway.WithMessage("Could not reach the catalog to validate parts. Please try again.")
	ErrValidationTimeout   = apperrors.ErrGatewayTimeout.WithMessage("Part validation timed out. Please try again.")
	ErrCartUnavailable     = apperrors.ErrBadGateway.WithMessage("Could not add items to the cart. Please try again.")
	ErrSessionBusy         = apperrors.ErrConflict.WithMessage("Session is being modified, please retry")
	ErrEmptyPaste          = apperrors.ErrInvalidInput.WithMessage("No part numbers and quantities could be read from the pasted text")
	ErrTooManyRows         = apperrors.ErrInvalidInput.WithMessage(fmt.Sprintf("A bulk order can hold at most %d rows. Split the list and try again.", models.MaxSessionRows))
	ErrValidationRejected  = apperrors.New(http.StatusUnprocessableEntity, "The catalog could not validate this list", nil)
	ErrCartRejected        = apperrors.New(http.StatusUnprocessableEntity, "The cart refused a row. Fix or remove the rows marked with an error and try again.", nil)
)

const (
	guestCartPrefix        = "guest-"
	defaultValidateTimeout = 15 * time.Second
)

// BulkOrderService drives a bulk-order session from paste to cart. userID is
// the acting shopper and may be empty for anonymous callers.
type BulkOrderService interface {
	Preview(rawText string) *models.ParseResponse
	CreateSession(ctx context.Context, rawText, userID string) (*models.SessionResponse, error)
	GetSession(ctx context.Context, sessionID, userID string) (*models.SessionResponse, error)
	ReplaceRows(ctx context.Context, sessionID, userID, rawText string) (*models.SessionResponse, error)
	Validate(ctx context.Context, sessionID, userID string) (*models.SessionResponse, error)
	EditRow(ctx context.Context, sessionID, userID, rowID string, patch models.RowPatch) (*models.SessionResponse, error)
	DeleteRow(ctx context.Context, sessionID, userID, rowID string) (*models.SessionResponse, error)
	Commit(ctx context.Context, sessionID, userID string) (*models.CommitResult, error)
	CloseSession(ctx context.Context, sessionID, userID string) error
}

type Options struct {
	ValidationTimeout time.Duration
	SNSTopicArn       string
}

type bulkOrderServiceImpl struct {
	repo      repository.SessionRepository
	catalog   CatalogValidator
	cart      CartInserter
	snsClient aws_pkg.SNSPublisher
	metrics   aws_pkg.MetricsRecorder
	opts      Options
	logger    *zap.Logger

	inflight singleflight.Group
}

func NewBulkOrderService(
	repo repository.SessionRepository,
	catalog CatalogValidator,
	cart CartInserter,
	snsClient aws_pkg.SNSPublisher,
	metrics aws_pkg.MetricsRecorder,
	opts Options,
	logger *zap.Logger,
) BulkOrderService {
	if opts.ValidationTimeout <= 0 {
		opts.ValidationTimeout = defaultValidateTimeout
	}
	if metrics == nil {
		metrics = (*aws_pkg.MetricsClient)(nil)
	}
	return &bulkOrderServiceImpl{
		repo:      repo,
		catalog:   catalog,
		cart:      cart,
		snsClient: snsClient,
		metrics:   metrics,
		opts:      opts,
		logger:    logger,
	}
}

func (s *bulkOrderServiceImpl) Preview(rawText string) *models.ParseResponse {
	rows, report := parser.ParseWithReport(rawText)
	return &models.ParseResponse{Rows: rows, Report: report, Counts: models.Readiness(rows)}
}

func (s *bulkOrderServiceImpl) CreateSession(ctx context.Context, rawText, userID string) (*models.SessionResponse, error) {
	rows, report := parser.ParseWithReport(rawText)
	if err := checkRowCount(rows); err != nil {
		return nil, err
	}

	sess := &models.Session{ID: uuid.NewString(), UserID: userID, Rows: rows}
	if err := s.repo.Create(ctx, sess); err != nil {
		s.logger.Error("failed to create bulk order session", zap.Error(err))
		return nil, apperrors.ErrInternalServer.Wrap(err)
	}
	s.recordParse(ctx, report)

	s.logger.Info("bulk order session created",
		zap.String("session_id", sess.ID),
		zap.Int("rows", len(rows)),
		zap.Int("dropped_lines", len(report.DroppedLines)),
	)

	resp := models.NewSessionResponse(sess)
	resp.ParseReport = &report
	return resp, nil
}

func (s *bulkOrderServiceImpl) GetSession(ctx context.Context, sessionID, userID string) (*models.SessionResponse, error) {
	sess, err := s.load(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, sess), nil
}

// ReplaceRows swaps in the rows of a new paste. Results of a validation still
// in flight are discarded for the replaced rows.
func (s *bulkOrderServiceImpl) ReplaceRows(ctx context.Context, sessionID, userID, rawText string) (*models.SessionResponse, error) {
	rows, report := parser.ParseWithReport(rawText)
	if err := checkRowCount(rows); err != nil {
		return nil, err
	}

	sess, err := s.update(ctx, sessionID, userID, func(sess *models.Session) error {
		sess.Rows = rows
		sess.LastValidatedAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordParse(ctx, report)

	resp := s.respond(ctx, sess)
	resp.ParseReport = &report
	return resp, nil
}

// Validate sends the session's distinct SKUs to the catalog in one call and
// merges the verdicts back by SKU. Concurrent calls for the same session in
// this process share one round-trip; across processes a Redis lock rejects
// the second caller.
func (s *bulkOrderServiceImpl) Validate(ctx context.Context, sessionID, userID string) (*models.SessionResponse, error) {
	if _, err := s.load(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	v, err, shared := s.inflight.Do(sessionID, func() (interface{}, error) {
		// The round-trip outlives a single caller disconnecting.
		return s.validate(context.WithoutCancel(ctx), sessionID, userID)
	})
	if shared {
		s.logger.Debug("validation shared with in-flight call", zap.String("session_id", sessionID))
	}
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, v.(*models.Session)), nil
}

func (s *bulkOrderServiceImpl) validate(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	release, ok, err := s.repo.AcquireValidationLock(ctx, sessionID, s.opts.ValidationTimeout+5*time.Second)
	if err != nil {
		return nil, apperrors.ErrServiceUnavailable.Wrap(err)
	}
	if !ok {
		return nil, ErrValidationBusy
	}
	defer release()

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	if len(sess.Rows) == 0 {
		return sess, nil
	}

	snap := sess.Snapshot()
	actor := userID
	if actor == "" {
		actor = sess.UserID
	}
	var actorRef *string
	if actor != "" {
		actorRef = &actor
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.ValidationTimeout)
	defer cancel()

	start := time.Now()
	results, err := s.catalog.ValidateSKUs(callCtx, snap.SKUs, actorRef)
	_ = s.metrics.RecordLatency(ctx, aws_pkg.MetricBulkValidationLatency, time.Since(start), nil)
	if err != nil {
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricBulkValidationFailed, nil)
		s.logger.Warn("bulk order validation round-trip failed",
			zap.String("session_id", sessionID),
			zap.Int("sku_count", len(snap.SKUs)),
			zap.Error(err),
		)
		var rejected *CatalogRejectedError
		if errors.As(err, &rejected) {
			return nil, ErrValidationRejected.Wrap(err)
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrValidationTimeout.Wrap(err)
		}
		return nil, ErrValidationFailed.Wrap(err)
	}

	var applied int
	updated, err := s.repo.Update(ctx, sessionID, func(sess *models.Session) error {
		applied = sess.ApplyValidation(snap, results)
		now := time.Now().UTC()
		sess.LastValidatedAt = &now
		return nil
	})
	if errors.Is(err, repository.ErrSessionNotFound) {
		s.logger.Info("discarding validation response for closed session", zap.String("session_id", sessionID))
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricBulkValidations, nil)

	s.logger.Info("bulk order validated",
		zap.String("session_id", sessionID),
		zap.Int("sku_count", len(snap.SKUs)),
		zap.Int("matched", len(results)),
		zap.Int("rows_applied", applied),
		zap.Int("rows_total", len(updated.Rows)),
	)
	return updated, nil
}

func (s *bulkOrderServiceImpl) EditRow(ctx context.Context, sessionID, userID, rowID string, patch models.RowPatch) (*models.SessionResponse, error) {
	sess, err := s.update(ctx, sessionID, userID, func(sess *models.Session) error {
		row := sess.Row(rowID)
		if row == nil {
			return ErrRowNotFound
		}
		row.Edit(patch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, sess), nil
}

func (s *bulkOrderServiceImpl) DeleteRow(ctx context.Context, sessionID, userID, rowID string) (*models.SessionResponse, error) {
	sess, err := s.update(ctx, sessionID, userID, func(sess *models.Session) error {
		if !sess.DeleteRow(rowID) {
			return ErrRowNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, sess), nil
}

// Commit adds every valid and warning row to the cart, one call per row in
// row order, then deletes the session. If any call fails the session is kept;
// retrying is safe because each row carries a stable idempotency key.
func (s *bulkOrderServiceImpl) Commit(ctx context.Context, sessionID, userID string) (*models.CommitResult, error) {
	sess, err := s.load(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	rows := sess.CommittableRows()
	if len(rows) == 0 {
		return nil, ErrNothingToCommit
	}

	owner := userID
	if owner == "" {
		owner = sess.UserID
	}
	if owner == "" {
		owner = guestCartPrefix + sess.ID
	}

	result := &models.CommitResult{
		SessionID: sess.ID,
		CartOwner: owner,
		Skipped:   len(sess.Rows) - len(rows),
		Items:     make([]models.CartInsertion, 0, len(rows)),
	}
	for i := range rows {
		row := &rows[i]
		item := toCartInsertion(row)
		key := fmt.Sprintf("%s:%s:%d", sess.ID, row.ID(), row.Revision())

		if err := s.cart.AddItem(ctx, owner, item, key); err != nil {
			_ = s.metrics.RecordCount(ctx, aws_pkg.MetricBulkCommitFailed, nil)
			s.logger.Error("bulk order commit failed",
				zap.String("session_id", sess.ID),
				zap.String("sku", row.SKU()),
				zap.Int("added_before_failure", result.ItemsAdded),
				zap.Error(err),
			)
			var rejected *CartRejectedError
			if errors.As(err, &rejected) {
				s.markRejected(ctx, sess.ID, row, rejected.Message)
				return nil, ErrCartRejected.Wrap(err)
			}
			return nil, ErrCartUnavailable.Wrap(err)
		}
		result.ItemsAdded++
		result.Items = append(result.Items, item)
	}

	if err := s.repo.Delete(ctx, sess.ID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		s.logger.Warn("failed to clear committed session", zap.String("session_id", sess.ID), zap.Error(err))
	}
	_ = s.metrics.RecordValue(ctx, aws_pkg.MetricBulkRowsCommitted, float64(result.ItemsAdded), nil)

	s.logger.Info("bulk order committed",
		zap.String("session_id", sess.ID),
		zap.String("cart_owner", owner),
		zap.Int("items_added", result.ItemsAdded),
		zap.Int("skipped", result.Skipped),
	)
	s.publishEvent(ctx, models.BulkOrderCommittedEvent{
		EventType:  models.EventBulkOrderCommitted,
		SessionID:  sess.ID,
		UserID:     userID,
		CartOwner:  owner,
		ItemsAdded: result.ItemsAdded,
		Skipped:    result.Skipped,
		Timestamp:  time.Now().UTC(),
	})
	return result, nil
}

// markRejected flags a row the cart refused so the next commit skips it. A row
// edited since it was read is left alone.
func (s *bulkOrderServiceImpl) markRejected(ctx context.Context, sessionID string, row *models.BulkRow, reason string) {
	_, err := s.repo.Update(ctx, sessionID, func(sess *models.Session) error {
		if r := sess.Row(row.ID()); r != nil && r.Revision() == row.Revision() {
			r.MarkRejected("Cart rejected this row: " + reason)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to flag rejected row",
			zap.String("session_id", sessionID),
			zap.String("row_id", row.ID()),
			zap.Error(err),
		)
	}
}

func checkRowCount(rows []models.BulkRow) error {
	switch {
	case len(rows) == 0:
		return ErrEmptyPaste
	case len(rows) > models.MaxSessionRows:
		return ErrTooManyRows
	}
	return nil
}

func toCartInsertion(row *models.BulkRow) models.CartInsertion {
	d, _ := row.Details()
	return models.CartInsertion{
		CatalogID:       d.CatalogID,
		SKU:             row.SKU(),
		Description:     d.Description,
		Price:           d.UnitPrice,
		Quantity:        row.Quantity(),
		DiscountedPrice: row.EffectivePrice(),
		InStock:         d.InStock,
	}
}

func (s *bulkOrderServiceImpl) CloseSession(ctx context.Context, sessionID, userID string) error {
	if _, err := s.load(ctx, sessionID, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return s.mapRepoError(err)
	}
	s.logger.Info("bulk order session closed", zap.String("session_id", sessionID))
	return nil
}

// load fetches a session the caller may see. Sessions opened by a signed-in
// shopper are hidden from everyone else.
func (s *bulkOrderServiceImpl) load(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	if sess.UserID != "" && sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *bulkOrderServiceImpl) update(ctx context.Context, sessionID, userID string, fn func(*models.Session) error) (*models.Session, error) {
	if _, err := s.load(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	sess, err := s.repo.Update(ctx, sessionID, fn)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	return sess, nil
}

func (s *bulkOrderServiceImpl) respond(ctx context.Context, sess *models.Session) *models.SessionResponse {
	resp := models.NewSessionResponse(sess)
	validating, err := s.repo.IsValidating(ctx, sess.ID)
	if err != nil {
		s.logger.Warn("failed to read validation lock", zap.String("session_id", sess.ID), zap.Error(err))
	}
	resp.Validating = validating
	return resp
}

func (s *bulkOrderServiceImpl) mapRepoError(err error) error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrSessionNotFound):
		return ErrSessionNotFound
	case errors.Is(err, repository.ErrConcurrentUpdate):
		return ErrSessionBusy
	default:
		s.logger.Error("bulk order session store error", zap.Error(err))
		return apperrors.ErrServiceUnavailable.Wrap(err)
	}
}

func (s *bulkOrderServiceImpl) recordParse(ctx context.Context, report models.ParseReport) {
	_ = s.metrics.RecordValue(ctx, aws_pkg.MetricBulkRowsParsed, float64(report.ParsedRows), nil)
	if n := len(report.DroppedLines); n > 0 {
		_ = s.metrics.RecordValue(ctx, aws_pkg.MetricBulkLinesDropped, float64(n), nil)
	}
}

// publishEvent is best effort; a failed publish never fails the commit.
func (s *bulkOrderServiceImpl) publishEvent(ctx context.Context, event models.BulkOrderCommittedEvent) {
	if s.snsClient == nil || s.opts.SNSTopicArn == "" {
		s.logger.Debug("SNS not configured, skipping event publish")
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal SNS event", zap.Error(err))
		return
	}
	if err := s.snsClient.Publish(ctx, s.opts.SNSTopicArn, b); err != nil {
		s.logger.Error("failed to publish SNS event", zap.String("event_type", event.EventType), zap.Error(err))
	}
}
