package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/oemparts/storefront/services/bulkorder-service/models"
	"github.com/oemparts/storefront/services/bulkorder-service/services"
	"github.com/oemparts/storefront/services/common/auth"
	apperrors "github.com/oemparts/storefront/services/common/errors"
	"github.com/oemparts/storefront/services/common/logger"
	"go.uber.org/zap"
)

type BulkOrderController struct {
	service  services.BulkOrderService
	validate *validator.Validate
}

func NewBulkOrderController(service services.BulkOrderService) *BulkOrderController {
	return &BulkOrderController{
		service:  service,
		validate: validator.New(),
	}
}

// Preview parses pasted text without creating a session.
func (bc *BulkOrderController) Preview(c *gin.Context) {
	req, ok := bc.bindText(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, bc.service.Preview(req.Text))
}

func (bc *BulkOrderController) CreateSession(c *gin.Context) {
	req, ok := bc.bindText(c)
	if !ok {
		return
	}

	resp, err := bc.service.CreateSession(c.Request.Context(), req.Text, auth.GetUserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (bc *BulkOrderController) GetSession(c *gin.Context) {
	resp, err := bc.service.GetSession(c.Request.Context(), c.Param("id"), auth.GetUserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReplaceRows re-parses new text into an existing session.
func (bc *BulkOrderController) ReplaceRows(c *gin.Context) {
	req, ok := bc.bindText(c)
	if !ok {
		return
	}

	resp, err := bc.service.ReplaceRows(c.Request.Context(), c.Param("id"), auth.GetUserID(c), req.Text)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (bc *BulkOrderController) Validate(c *gin.Context) {
	sessionID := c.Param("id")
	resp, err := bc.service.Validate(c.Request.Context(), sessionID, auth.GetUserID(c))
	if err != nil {
		logger.Warn(c.Request.Context(), "bulk validation failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (bc *BulkOrderController) EditRow(c *gin.Context) {
	var req models.EditRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidInput.WithMessage("Invalid request body"))
		return
	}
	if err := bc.validate.Struct(req); err != nil {
		apperrors.Respond(c, apperrors.ErrValidation.WithMessage(err.Error()))
		return
	}
	if req.SKU == nil && req.Quantity == nil {
		apperrors.Respond(c, apperrors.ErrInvalidInput.WithMessage("sku or quantity is required"))
		return
	}

	resp, err := bc.service.EditRow(c.Request.Context(), c.Param("id"), auth.GetUserID(c), c.Param("row_id"), req.Patch())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (bc *BulkOrderController) DeleteRow(c *gin.Context) {
	resp, err := bc.service.DeleteRow(c.Request.Context(), c.Param("id"), auth.GetUserID(c), c.Param("row_id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (bc *BulkOrderController) Commit(c *gin.Context) {
	result, err := bc.service.Commit(c.Request.Context(), c.Param("id"), auth.GetUserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (bc *BulkOrderController) CloseSession(c *gin.Context) {
	if err := bc.service.CloseSession(c.Request.Context(), c.Param("id"), auth.GetUserID(c)); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (bc *BulkOrderController) bindText(c *gin.Context) (*models.ParseTextRequest, bool) {
	var req models.ParseTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidInput.WithMessage("text is required"))
		return nil, false
	}
	if err := bc.validate.Struct(req); err != nil {
		apperrors.Respond(c, apperrors.ErrValidation.WithMessage(err.Error()))
		return nil, false
	}
	return &req, true
}
