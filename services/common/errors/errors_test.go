package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	apperrors "github.com/oemparts/storefront/services/common/errors"
	"github.com/stretchr/testify/assert"
)

func TestWrap_DoesNotMutateTemplate(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	wrapped := apperrors.ErrBadGateway.Wrap(cause)

	assert.Nil(t, apperrors.ErrBadGateway.Err)
	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, apperrors.ErrBadGateway)
	assert.Equal(t, "Upstream service error: dial tcp: refused", wrapped.Error())
}

func TestFrom(t *testing.T) {
	nf := apperrors.ErrNotFound.WithMessage("Session not found")
	assert.Same(t, nf, apperrors.From(fmt.Errorf("lookup: %w", nf)))

	plain := apperrors.From(stderrors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, plain.Code)
	assert.Nil(t, apperrors.ErrInternalServer.Err)
}

func TestErrorMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	r.GET("/conflict", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrConflict.WithMessage("Nothing to commit"))
	})
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Nothing to commit"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
