package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/oemparts/storefront/services/catalog-service/controllers"
	"github.com/oemparts/storefront/services/common/auth"
)

// RegisterCatalogRoutes mounts the catalog API. adminAuth must reject
// unauthenticated callers; import endpoints additionally require the admin role.
func RegisterCatalogRoutes(r *gin.Engine, catalog *controllers.CatalogController, imports *controllers.ImportController, adminAuth gin.HandlerFunc) {
	catalogRoutes := r.Group("/catalog")
	{
		catalogRoutes.POST("/validate-skus", catalog.ValidateSKUs)
		catalogRoutes.GET("/search", catalog.Search)
	}

	importRoutes := catalogRoutes.Group("/import")
	importRoutes.Use(adminAuth, auth.AdminOnly())
	{
		importRoutes.POST("/validate", imports.ValidateImport)
		importRoutes.POST("", imports.Import)
		importRoutes.GET("/jobs/:id", imports.GetImportJob)
	}
}
