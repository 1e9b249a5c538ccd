package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/oemparts/storefront/services/cart-service/controllers"
)

// RegisterCartRoutes mounts the cart API behind identity, which must reject
// requests with no resolvable cart owner.
func RegisterCartRoutes(r *gin.Engine, controller *controllers.CartController, identity gin.HandlerFunc) {
	api := r.Group("/cart")
	api.Use(identity)
	{
		api.GET("/", controller.GetCart)
		api.POST("/items", controller.AddItem)
		api.DELETE("/items/:catalog_id", controller.RemoveItem)
		api.DELETE("/clear", controller.ClearCart)
		api.POST("/checkout", controller.Checkout)
	}
}
