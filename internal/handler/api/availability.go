package api

import (
	"net/http"

	"villa-booking/internal/domain/booking"
	reqdto "villa-booking/internal/handler/dto/request"
	resdto "villa-booking/internal/handler/dto/response"
	"villa-booking/internal/handler/httperr"
	"villa-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	availability queries.AvailabilityQueries
}

func NewAvailabilityHandler(availability queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// @Summary Check availability
// @Description Whether the half-open range [checkIn, checkOut) is free on the property
// @Tags properties
// @Produce json
// @Param id path string true "Property ID"
// @Param checkIn query string true "YYYY-MM-DD"
// @Param checkOut query string true "YYYY-MM-DD"
// @Success 200 {object} httperr.Envelope{data=resdto.AvailabilityResponse}
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /properties/{id}/availability [get]
func (h *AvailabilityHandler) Check(c *gin.Context) {
	propertyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var q reqdto.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}
	stay, err := booking.ParseStayDates(q.CheckIn, q.CheckOut)
	if err != nil {
		httperr.Abort(c, err, "Invalid dates")
		return
	}

	result, err := h.availability.Check(c.Request.Context(), propertyID, stay)
	if err != nil {
		httperr.Abort(c, err, "Failed to check availability")
		return
	}
	httperr.OK(c, http.StatusOK, "", resdto.FromAvailability(result))
}
