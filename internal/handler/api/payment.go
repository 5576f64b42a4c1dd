package api

import (
	"net/http"

	reqdto "villa-booking/internal/handler/dto/request"
	resdto "villa-booking/internal/handler/dto/response"
	"villa-booking/internal/handler/httperr"
	"villa-booking/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	payments     commands.PaymentCommands
	reservations commands.ReservationCommands
}

func NewPaymentHandler(payments commands.PaymentCommands, reservations commands.ReservationCommands) *PaymentHandler {
	return &PaymentHandler{payments: payments, reservations: reservations}
}

// @Summary Create payment order
// @Description Quote the stay server-side and open a gateway order for the quoted amount
// @Tags payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateOrderRequest true "Order request"
// @Success 200 {object} httperr.Envelope{data=resdto.OrderResponse}
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /payment/order [post]
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req reqdto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	userID, ok := actorID(c, req.UserID)
	if !ok {
		return
	}
	params, err := req.ToParams(userID)
	if err != nil {
		httperr.Abort(c, err, "Invalid booking details")
		return
	}

	result, err := h.payments.CreateOrder(c.Request.Context(), params)
	if err != nil {
		httperr.Abort(c, err, "Failed to create payment order")
		return
	}
	httperr.OK(c, http.StatusOK, "Payment order created", resdto.FromOrderResult(result))
}

// @Summary Verify payment and reserve
// @Description Verify the gateway signature and payment, then book the dates
// @Tags payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.VerifyPaymentRequest true "Verification request"
// @Success 201 {object} httperr.Envelope{data=resdto.VerifyResponse}
// @Success 200 {object} httperr.Envelope{data=resdto.VerifyResponse} "Payment already booked by this user"
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /payment/verify [post]
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req reqdto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	userID, ok := actorID(c, req.UserID)
	if !ok {
		return
	}
	params, err := req.ToParams(userID)
	if err != nil {
		httperr.Abort(c, err, "Invalid booking details")
		return
	}

	result, err := h.reservations.VerifyAndReserve(c.Request.Context(), params)
	if err != nil {
		httperr.Abort(c, err, "Failed to verify payment")
		return
	}
	if result.IsReplayed {
		httperr.OK(c, http.StatusOK, "Payment already verified", resdto.FromReserveResult(result))
		return
	}
	httperr.OK(c, http.StatusCreated, "Payment verified and booking created successfully", resdto.FromReserveResult(result))
}
