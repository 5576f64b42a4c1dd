package api

import (
	"bytes"
	"net/http"

	reqdto "villa-booking/internal/handler/dto/request"
	resdto "villa-booking/internal/handler/dto/response"
	"villa-booking/internal/handler/httperr"
	"villa-booking/internal/handler/middleware"
	"villa-booking/internal/pkg/invoice"
	"villa-booking/internal/usecase/commands"
	"villa-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	cancellations commands.CancellationCommands
	bookings      queries.BookingQueries
}

func NewBookingHandler(cancellations commands.CancellationCommands, bookings queries.BookingQueries) *BookingHandler {
	return &BookingHandler{cancellations: cancellations, bookings: bookings}
}

// @Summary Cancel booking
// @Description Refund (when refundAmount > 0) and cancel a booking of the authenticated user
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CancelBookingRequest true "Cancellation request"
// @Success 200 {object} httperr.Envelope{data=resdto.CancelResponse}
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /bookings/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	var req reqdto.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	userID, ok := actorID(c, req.UserID)
	if !ok {
		return
	}

	result, err := h.cancellations.Cancel(c.Request.Context(), req.ToParams(userID))
	if err != nil {
		httperr.Abort(c, err, "Failed to cancel booking")
		return
	}
	httperr.OK(c, http.StatusOK, "Booking cancelled successfully", resdto.FromCancellationResult(result))
}

// @Summary List my bookings
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httperr.Envelope{data=resdto.BookingListResponse}
// @Failure 401 {object} httperr.Response
// @Router /bookings [get]
func (h *BookingHandler) ListMine(c *gin.Context) {
	userID, ok := actorID(c, nil)
	if !ok {
		return
	}
	items, err := h.bookings.ListForUser(c.Request.Context(), userID)
	if err != nil {
		httperr.Abort(c, err, "Failed to list bookings")
		return
	}
	h.respondList(c, items, nil)
}

// @Summary Get booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} httperr.Envelope{data=resdto.BookingResponse}
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := actorID(c, nil)
	if !ok {
		return
	}
	view, err := h.bookings.GetForUser(c.Request.Context(), id, userID)
	if err != nil {
		httperr.Abort(c, err, "Booking not found")
		return
	}
	resp, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.Abort(c, err, "Failed to render booking")
		return
	}
	httperr.OK(c, http.StatusOK, "", resp)
}

// @Summary Download invoice
// @Description Plain-text invoice of a booking of the authenticated user
// @Tags bookings
// @Produce plain
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {string} string "invoice"
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id}/invoice [get]
func (h *BookingHandler) Invoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := actorID(c, nil)
	if !ok {
		return
	}
	inv, err := h.bookings.InvoiceForUser(c.Request.Context(), id, userID)
	if err != nil {
		httperr.Abort(c, err, "Failed to generate invoice")
		return
	}
	var buf bytes.Buffer
	if err := invoice.Render(&buf, inv); err != nil {
		httperr.Abort(c, err, "Failed to generate invoice")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+inv.FileName()+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

// @Summary List bookings of my properties
// @Tags host
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httperr.Envelope{data=resdto.BookingListResponse}
// @Failure 403 {object} httperr.Response
// @Router /host/bookings [get]
func (h *BookingHandler) ListForHost(c *gin.Context) {
	hostID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	items, err := h.bookings.ListForHost(c.Request.Context(), hostID)
	if err != nil {
		httperr.Abort(c, err, "Failed to list bookings")
		return
	}
	h.respondList(c, items, nil)
}

// @Summary List all bookings
// @Description Keyset-paginated, newest first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param after query string false "Cursor from the previous page"
// @Param limit query int false "Page size"
// @Success 200 {object} httperr.Envelope{data=resdto.BookingListResponse}
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Router /admin/bookings [get]
func (h *BookingHandler) ListAll(c *gin.Context) {
	var q reqdto.ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}
	var cursor *queries.Cursor
	if q.After != "" {
		cursor = &queries.Cursor{After: q.After}
	}
	items, next, err := h.bookings.ListAll(c.Request.Context(), cursor, q.Limit)
	if err != nil {
		httperr.Abort(c, err, "Failed to list bookings")
		return
	}
	h.respondList(c, items, next)
}

func (h *BookingHandler) respondList(c *gin.Context, items []queries.BookingView, next *queries.Cursor) {
	resp, err := resdto.FromBookingViews(items, next)
	if err != nil {
		httperr.Abort(c, err, "Failed to render bookings")
		return
	}
	httperr.OK(c, http.StatusOK, "", resp)
}
