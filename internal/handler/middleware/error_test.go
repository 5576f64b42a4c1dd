//go:build unit

package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"villa-booking/internal/handler/httperr"
	"villa-booking/internal/handler/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/recorded", func(c *gin.Context) {
		_ = c.Error(&gin.Error{
			Err:  errors.New("dates taken"),
			Type: gin.ErrorTypePublic,
			Meta: httperr.Response{Status: http.StatusConflict, Message: "Dates taken", Error: "dates taken"},
		})
	})
	r.GET("/private", func(c *gin.Context) {
		_ = c.Error(errors.New("pool closed"))
	})
	r.GET("/aborted", func(c *gin.Context) {
		httperr.Abort(c, errors.New("pool closed"), "Failed")
	})

	t.Run("public error renders its envelope", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recorded", nil))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Dates taken","error":"dates taken"}`, rec.Body.String())
	})

	t.Run("private error is redacted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "pool closed")
	})

	t.Run("written response is left alone", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/aborted", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Internal server error","error":"Internal server error"}`, rec.Body.String())
	})
}
