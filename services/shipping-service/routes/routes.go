package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/oemparts/storefront/services/shipping-service/controllers"
)

// RegisterShippingRoutes mounts the freight quote API. Guests may quote;
// listing requires a resolved user.
func RegisterShippingRoutes(r *gin.Engine, sc *controllers.ShippingController, identity gin.HandlerFunc) {
	shipping := r.Group("/shipping")
	shipping.Use(identity)

	shipping.POST("/rates", sc.GetRates)
	shipping.GET("/quotes", sc.ListQuotes)
	shipping.GET("/quotes/:id", sc.GetQuote)
}
