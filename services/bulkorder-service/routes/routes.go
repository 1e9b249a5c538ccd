package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/oemparts/storefront/services/bulkorder-service/controllers"
)

// RegisterBulkOrderRoutes mounts the bulk-order API. identity resolves the
// caller but must not reject anonymous shoppers.
func RegisterBulkOrderRoutes(r *gin.Engine, ctrl *controllers.BulkOrderController, identity gin.HandlerFunc) {
	bulk := r.Group("/bulk-orders")
	bulk.Use(identity)
	{
		bulk.POST("/parse", ctrl.Preview)
		bulk.POST("", ctrl.CreateSession)
		bulk.GET("/:id", ctrl.GetSession)
		bulk.PUT("/:id/rows", ctrl.ReplaceRows)
		bulk.POST("/:id/validate", ctrl.Validate)
		bulk.PATCH("/:id/rows/:row_id", ctrl.EditRow)
		bulk.DELETE("/:id/rows/:row_id", ctrl.DeleteRow)
		bulk.POST("/:id/commit", ctrl.Commit)
		bulk.DELETE("/:id", ctrl.CloseSession)
	}
}
