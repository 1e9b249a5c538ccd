package utils

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oemparts/storefront/services/common/auth"
	"github.com/oemparts/storefront/services/common/logger"
	"go.uber.org/zap"
)

var hopByHop = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// Forwarder proxies gateway requests to one downstream service.
type Forwarder struct {
	client *http.Client
}

func NewForwarder(timeout time.Duration) *Forwarder {
	return &Forwarder{client: &http.Client{Timeout: timeout}}
}

// To returns a handler that forwards the request path unchanged to base.
func (f *Forwarder) To(base string) gin.HandlerFunc {
	base = strings.TrimRight(base, "/")
	return func(c *gin.Context) {
		f.forward(c, base)
	}
}

func (f *Forwarder) forward(c *gin.Context, base string) {
	ctx := c.Request.Context()
	targetURL := base + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		targetURL += "?" + c.Request.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, c.Request.Method, targetURL, c.Request.Body)
	if err != nil {
		logger.Error(ctx, "Failed to create forward request", err, zap.String("url", targetURL))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create request"})
		return
	}
	req.ContentLength = c.Request.ContentLength

	for k, v := range c.Request.Header {
		if hopByHop[strings.ToLower(k)] {
			continue
		}
		req.Header[k] = v
	}
	if id := logger.RequestIDFrom(ctx); id != "unknown" {
		req.Header.Set(logger.RequestIDHeader, id)
	}

	// Inject user claims headers for downstream services
	if uid := c.GetString(auth.UserContextKey); uid != "" {
		req.Header.Set("X-User-ID", uid)
		req.Header.Set("X-User-Role", c.GetString(auth.RoleContextKey))
		req.Header.Set("X-User-Email", c.GetString(auth.EmailContextKey))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Error(ctx, "Failed to forward request", err, zap.String("url", targetURL))
		c.JSON(http.StatusBadGateway, gin.H{"error": "service unreachable"})
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		lowerKey := strings.ToLower(k)
		// CORS is answered by the gateway itself.
		if strings.HasPrefix(lowerKey, "access-control-") || hopByHop[lowerKey] {
			continue
		}
		for _, value := range v {
			c.Writer.Header().Add(k, value)
		}
	}

	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		logger.Warn(ctx, "Failed to copy response body", zap.Error(err))
	}
}
