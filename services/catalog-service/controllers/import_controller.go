package controllers

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oemparts/storefront/services/catalog-service/services"
	apperrors "github.com/oemparts/storefront/services/common/errors"
	"github.com/oemparts/storefront/services/common/logger"
	"go.uber.org/zap"
)

// ImportController handles catalog CSV uploads.
type ImportController struct {
	service services.ImportService
}

func NewImportController(service services.ImportService) *ImportController {
	return &ImportController{service: service}
}

// ValidateImport is a dry run: nothing is written.
func (ic *ImportController) ValidateImport(c *gin.Context) {
	data, _, ok := ic.readUpload(c)
	if !ok {
		return
	}

	validation, err := ic.service.ValidateImport(c.Request.Context(), bytes.NewReader(data))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, validation)
}

// Import upserts the uploaded CSV, or queues it when async=true.
func (ic *ImportController) Import(c *gin.Context) {
	data, filename, ok := ic.readUpload(c)
	if !ok {
		return
	}

	if strings.EqualFold(strings.TrimSpace(c.Query("async")), "true") {
		job, err := ic.service.EnqueueImport(c.Request.Context(), filename, data)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
		return
	}

	result, err := ic.service.Import(c.Request.Context(), bytes.NewReader(data))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ic *ImportController) GetImportJob(c *gin.Context) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidInput.WithMessage("invalid job id"))
		return
	}

	job, err := ic.service.GetJob(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (ic *ImportController) readUpload(c *gin.Context) ([]byte, string, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidInput.WithMessage("file is required"))
		return nil, "", false
	}
	if err := validateCSVUpload(file); err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidInput.WithMessage(err.Error()))
		return nil, "", false
	}

	f, err := file.Open()
	if err != nil {
		apperrors.Respond(c, apperrors.ErrInternalServer.WithMessage("Failed to open file"))
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		logger.Error(c.Request.Context(), "failed to read upload", err, zap.String("filename", file.Filename))
		apperrors.Respond(c, apperrors.ErrInternalServer.WithMessage("Failed to read file"))
		return nil, "", false
	}
	return data, file.Filename, true
}
