package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesStatusClass(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("Product not found"))

	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrUnauthorized))
	assert.True(t, stderrors.Is(err, ErrProductNotFound))
}

func TestSpecificSentinelsNeedMatchingMessage(t *testing.T) {
	assert.False(t, stderrors.Is(Validation("Invalid payment method"), ErrInsufficientStock))
	assert.True(t, stderrors.Is(fmt.Errorf("reserve: %w", ErrInsufficientStock), ErrInsufficientStock))
	assert.False(t, stderrors.Is(NotFound("Not Found"), ErrProductNotFound))
	assert.True(t, stderrors.Is(NotFound("Not Found"), ErrNotFound))
}

func TestFromWrapsForeignErrors(t *testing.T) {
	cause := stderrors.New("boom")

	appErr := From(cause)

	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, http.StatusBadRequest, StatusCode(Validation("bad")))
}

func TestErrorMiddlewareRendersLastError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorMiddleware())
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(NotFound("Order not found"))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(stderrors.New("db down"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":404,"message":"Order not found"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}
