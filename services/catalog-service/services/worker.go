package services

import (
	"context"
	"errors"

	aws_pkg "github.com/oemparts/storefront/pkg/aws"
	"go.uber.org/zap"
)

// MessagePoller is the consuming half of a queue.
type MessagePoller interface {
	StartPolling(ctx context.Context, handler aws_pkg.MessageHandler) error
}

// StartImportWorker consumes queued import jobs until ctx is cancelled.
func StartImportWorker(ctx context.Context, queue MessagePoller, svc ImportService, metrics aws_pkg.MetricsRecorder, logger *zap.Logger) {
	if queue == nil || svc == nil {
		logger.Warn("catalog import worker not started: missing dependencies")
		return
	}
	if metrics == nil {
		metrics = (*aws_pkg.MetricsClient)(nil)
	}

	go func() {
		logger.Info("catalog import worker started")
		err := queue.StartPolling(ctx, func(ctx context.Context, body string) error {
			err := svc.HandleJobMessage(ctx, body)
			status := "ok"
			if err != nil {
				status = "error"
			}
			_ = metrics.RecordCount(ctx, aws_pkg.MetricSQSMessages, map[string]string{"Queue": "catalog-import", "Status": status})
			return err
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("catalog import worker stopped", zap.Error(err))
			return
		}
		logger.Info("catalog import worker stopping")
	}()
}
