package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/oemparts/storefront/api-gateway/middlewares"
	"github.com/oemparts/storefront/api-gateway/utils"
	"github.com/oemparts/storefront/services/common/auth"
)

// Upstreams are the base URLs of the services behind the gateway.
type Upstreams struct {
	BulkOrder string
	Catalog   string
	Cart      string
	Shipping  string
}

func RegisterAllRoutes(r *gin.Engine, fwd *utils.Forwarder, tokens *auth.TokenValidator, up Upstreams) {
	bulkOrders := fwd.To(up.BulkOrder)
	catalog := fwd.To(up.Catalog)
	cart := fwd.To(up.Cart)
	shipping := fwd.To(up.Shipping)

	// ===== GUEST-FRIENDLY ROUTES (token optional) =====
	public := r.Group("/")
	public.Use(middlewares.JWTMiddleware(tokens, false))

	public.GET("/catalog/search", catalog)
	public.Any("/bulk-orders", bulkOrders)
	public.Any("/bulk-orders/*any", bulkOrders)
	public.Any("/shipping/*any", shipping)

	// ===== PROTECTED ROUTES (JWT Required) =====
	protected := r.Group("/")
	protected.Use(middlewares.JWTMiddleware(tokens, true))

	protected.Any("/cart", cart)
	protected.Any("/cart/*any", cart)

	// ===== ADMIN ROUTES (JWT + Admin Role Required) =====
	admin := protected.Group("/")
	admin.Use(auth.AdminOnly())

	admin.POST("/catalog/import", catalog)
	admin.Any("/catalog/import/*any", catalog)
}
