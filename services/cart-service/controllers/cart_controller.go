package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/oemparts/storefront/services/cart-service/models"
	"github.com/oemparts/storefront/services/cart-service/services"
	"github.com/oemparts/storefront/services/common/auth"
	apperrors "github.com/oemparts/storefront/services/common/errors"
)

const IdempotencyHeader = "Idempotency-Key"

type CartController struct {
	service  services.CartService
	validate *validator.Validate
}

func NewCartController(service services.CartService) *CartController {
	return &CartController{service: service, validate: validator.New()}
}

// GetCart returns the current cart for a user
func (cc *CartController) GetCart(c *gin.Context) {
	cart, err := cc.service.GetCart(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem adds or merges an item. A replayed Idempotency-Key answers 200 with
// the unchanged cart instead of 201.
func (cc *CartController) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidInput.WithMessage("invalid payload"))
		return
	}
	if err := cc.validate.Struct(req); err != nil {
		apperrors.Respond(c, apperrors.ErrValidation.WithMessage(err.Error()))
		return
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	cart, applied, err := cc.service.AddItem(c.Request.Context(), auth.GetUserID(c), req, key)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if !applied {
		c.Header("Idempotent-Replayed", "true")
		c.JSON(http.StatusOK, cart)
		return
	}
	c.JSON(http.StatusCreated, cart)
}

// RemoveItem removes a specific item from the cart
func (cc *CartController) RemoveItem(c *gin.Context) {
	cart, err := cc.service.RemoveItem(c.Request.Context(), auth.GetUserID(c), c.Param("catalog_id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ClearCart removes all items from the cart
func (cc *CartController) ClearCart(c *gin.Context) {
	if err := cc.service.ClearCart(c.Request.Context(), auth.GetUserID(c)); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}

// Checkout publishes the cart to Kafka and clears it
func (cc *CartController) Checkout(c *gin.Context) {
	if err := cc.service.Checkout(c.Request.Context(), auth.GetUserID(c)); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "checkout initiated"})
}
