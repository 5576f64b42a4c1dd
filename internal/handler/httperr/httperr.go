package httperr

import (
	"net/http"

	"villa-booking/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

const (
	msgInternal = "Internal server error"
	msgProvider = "Payment provider error"
)

// Response is the failure envelope. Error carries the client-safe error text.
type Response struct {
	Status  int    `json:"-"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Detail  any    `json:"detail,omitempty"`
}

// Envelope wraps successful payloads.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Envelope{Success: true, Message: msg, Data: data})
}

// AbortWithError preserves the original error on the gin context for the logging middleware.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		err = errs.New(msg)
	}

	resp := Response{Status: status, Message: msg, Error: msg, Detail: detail}
	if status < http.StatusInternalServerError {
		resp.Error = err.Error()
	}

	_ = c.Error(&gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

// Abort resolves the status from the error category. Provider and uncategorised
// errors are rendered with a generic message only.
func Abort(c *gin.Context, err error, msg string) {
	status := StatusOf(err)
	switch {
	case errs.Is(err, errs.ErrProvider):
		msg = msgProvider
	case status == http.StatusInternalServerError:
		msg = msgInternal
	}
	AbortWithError(c, status, err, msg, nil)
}

func StatusOf(err error) int {
	switch errs.Category(err) {
	case errs.ErrValidation, errs.ErrAuthenticity:
		return http.StatusBadRequest
	case errs.ErrNotFound:
		return http.StatusNotFound
	case errs.ErrForbidden:
		return http.StatusForbidden
	case errs.ErrConflict, errs.ErrState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
