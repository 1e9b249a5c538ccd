package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/oemparts/storefront/services/common/auth"
	apperrors "github.com/oemparts/storefront/services/common/errors"
	"github.com/oemparts/storefront/services/shipping-service/models"
	"github.com/oemparts/storefront/services/shipping-service/services"
)

type ShippingController struct {
	shippingService services.ShippingService
	validate        *validator.Validate
}

func NewShippingController(svc services.ShippingService) *ShippingController {
	return &ShippingController{shippingService: svc, validate: validator.New()}
}

// GetRates handles POST /shipping/rates
func (sc *ShippingController) GetRates(c *gin.Context) {
	var req models.ShippingRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidInput.WithMessage("weight_kg and destination are required"))
		return
	}
	if err := sc.validate.Struct(req); err != nil {
		apperrors.Respond(c, apperrors.ErrValidation.WithMessage(err.Error()))
		return
	}

	resp, err := sc.shippingService.GetRates(c.Request.Context(), auth.GetUserID(c), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetQuote handles GET /shipping/quotes/:id
func (sc *ShippingController) GetQuote(c *gin.Context) {
	quote, err := sc.shippingService.GetQuote(c.Request.Context(), c.Param("id"), auth.GetUserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (sc *ShippingController) ListQuotes(c *gin.Context) {
	quotes, err := sc.shippingService.ListQuotes(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}
