package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	awspkg "github.com/oemparts/storefront/pkg/aws"
)

// MetricsMiddleware records request count, latency and error counts per route.
// The route template is used as the Path dimension so ids in URLs do not
// explode metric cardinality.
func MetricsMiddleware(metricsClient *awspkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !metricsClient.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		dimensions := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    route,
			"Status":  statusCodeToRange(statusCode),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			recordRequest(ctx, metricsClient, statusCode, duration, dimensions)
		}()
	}
}

// recordRequest counts every status >= 400 toward the error total as well as
// its 4xx or 5xx bucket.
func recordRequest(ctx context.Context, rec awspkg.MetricsRecorder, statusCode int, duration time.Duration, dimensions map[string]string) {
	_ = rec.RecordCount(ctx, awspkg.MetricHTTPRequests, dimensions)
	_ = rec.RecordLatency(ctx, awspkg.MetricHTTPLatency, duration, dimensions)

	if statusCode < 400 {
		return
	}
	_ = rec.RecordCount(ctx, awspkg.MetricHTTPErrors, dimensions)
	if statusCode >= 500 {
		_ = rec.RecordCount(ctx, awspkg.MetricHTTP5xx, dimensions)
	} else {
		_ = rec.RecordCount(ctx, awspkg.MetricHTTP4xx, dimensions)
	}
}

func statusCodeToRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
