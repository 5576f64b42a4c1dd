package api

import (
	"net/http"

	reqdto "villa-booking/internal/handler/dto/request"
	resdto "villa-booking/internal/handler/dto/response"
	"villa-booking/internal/handler/httperr"
	"villa-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type PricingHandler struct {
	pricing queries.PricingQueries
}

func NewPricingHandler(pricing queries.PricingQueries) *PricingHandler {
	return &PricingHandler{pricing: pricing}
}

// @Summary Price quote
// @Description Nightly total with the coupon applied, as CreateOrder will charge it
// @Tags pricing
// @Accept json
// @Produce json
// @Param request body reqdto.QuoteRequest true "Quote request"
// @Success 200 {object} httperr.Envelope{data=resdto.QuoteResponse}
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /pricing/quote [post]
func (h *PricingHandler) Quote(c *gin.Context) {
	var req reqdto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	stay, err := req.Stay()
	if err != nil {
		httperr.Abort(c, err, "Invalid dates")
		return
	}

	quote, err := h.pricing.Quote(c.Request.Context(), req.PropertyID, stay, req.Code())
	if err != nil {
		httperr.Abort(c, err, "Failed to quote price")
		return
	}
	httperr.OK(c, http.StatusOK, "", resdto.FromQuote(quote))
}
