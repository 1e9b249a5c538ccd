package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/oemparts/storefront/services/catalog-service/models"
	"github.com/oemparts/storefront/services/catalog-service/services"
	apperrors "github.com/oemparts/storefront/services/common/errors"
)

type CatalogController struct {
	service  services.CatalogService
	validate *validator.Validate
}

func NewCatalogController(service services.CatalogService) *CatalogController {
	return &CatalogController{service: service, validate: validator.New()}
}

// ValidateSKUs serves the bulk-order validation RPC.
func (cc *CatalogController) ValidateSKUs(c *gin.Context) {
	var req models.ValidateSKUsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidInput.WithMessage("skus is required"))
		return
	}
	if err := cc.validate.Struct(req); err != nil {
		apperrors.Respond(c, apperrors.ErrValidation.WithMessage(err.Error()))
		return
	}

	results, err := cc.service.ValidateSKUs(c.Request.Context(), req.SKUs, req.UserID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (cc *CatalogController) Search(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidInput.WithMessage("invalid page number"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultSearchLimit)))
	if err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidInput.WithMessage("invalid page size"))
		return
	}

	resp, err := cc.service.Search(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
