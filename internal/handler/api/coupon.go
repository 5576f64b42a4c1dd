package api

import (
	"net/http"

	"villa-booking/internal/domain/coupon"
	reqdto "villa-booking/internal/handler/dto/request"
	resdto "villa-booking/internal/handler/dto/response"
	"villa-booking/internal/handler/httperr"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/usecase/commands"
	"villa-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type CouponHandler struct {
	cmds  commands.CouponCommands
	q     queries.CouponQueries
	clock clock.Clock
}

func NewCouponHandler(cmds commands.CouponCommands, q queries.CouponQueries, clk clock.Clock) *CouponHandler {
	return &CouponHandler{cmds: cmds, q: q, clock: clk}
}

// @Summary Create platform coupon
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreatePlatformCouponRequest true "Coupon"
// @Success 201 {object} httperr.Envelope{data=resdto.CouponResponse}
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /admin/coupons [post]
func (h *CouponHandler) CreatePlatform(c *gin.Context) {
	var req reqdto.CreatePlatformCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	params, err := req.ToParams()
	if err != nil {
		httperr.Abort(c, err, "Invalid coupon")
		return
	}
	cp, err := h.cmds.CreatePlatform(c.Request.Context(), params)
	if err != nil {
		httperr.Abort(c, err, "Failed to create coupon")
		return
	}
	h.respondCoupon(c, http.StatusCreated, "Coupon created", cp)
}

// @Summary List platform coupons
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httperr.Envelope{data=[]resdto.CouponResponse}
// @Failure 403 {object} httperr.Response
// @Router /admin/coupons [get]
func (h *CouponHandler) ListPlatform(c *gin.Context) {
	views, err := h.q.ListPlatform(c.Request.Context())
	if err != nil {
		httperr.Abort(c, err, "Failed to list coupons")
		return
	}
	h.respondCoupons(c, views)
}

// @Summary Activate or deactivate a coupon
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Coupon ID"
// @Param request body reqdto.SetCouponActiveRequest true "Active flag"
// @Success 200 {object} httperr.Envelope{data=resdto.CouponResponse}
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /admin/coupons/{id} [patch]
func (h *CouponHandler) SetActive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req reqdto.SetCouponActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	cp, err := h.cmds.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		httperr.Abort(c, err, "Failed to update coupon")
		return
	}
	h.respondCoupon(c, http.StatusOK, "Coupon updated", cp)
}

// @Summary Delete coupon
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Coupon ID"
// @Success 204 "No Content"
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /admin/coupons/{id} [delete]
func (h *CouponHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.cmds.Delete(c.Request.Context(), id); err != nil {
		httperr.Abort(c, err, "Failed to delete coupon")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Create host coupon
// @Description The property must belong to the authenticated host
// @Tags host
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateHostCouponRequest true "Coupon"
// @Success 201 {object} httperr.Envelope{data=resdto.CouponResponse}
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /host/coupons [post]
func (h *CouponHandler) CreateHost(c *gin.Context) {
	var req reqdto.CreateHostCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	hostID, ok := actorID(c, nil)
	if !ok {
		return
	}
	cp, err := h.cmds.CreateHost(c.Request.Context(), req.ToParams(hostID))
	if err != nil {
		httperr.Abort(c, err, "Failed to create coupon")
		return
	}
	h.respondCoupon(c, http.StatusCreated, "Coupon created", cp)
}

// @Summary List my coupons
// @Tags host
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httperr.Envelope{data=[]resdto.CouponResponse}
// @Router /host/coupons [get]
func (h *CouponHandler) ListHost(c *gin.Context) {
	hostID, ok := actorID(c, nil)
	if !ok {
		return
	}
	views, err := h.q.ListForHost(c.Request.Context(), hostID)
	if err != nil {
		httperr.Abort(c, err, "Failed to list coupons")
		return
	}
	h.respondCoupons(c, views)
}

func (h *CouponHandler) respondCoupon(c *gin.Context, status int, msg string, cp *coupon.Coupon) {
	view := queries.NewCouponView(cp, h.clock.Now())
	resp, err := resdto.FromCouponView(&view)
	if err != nil {
		httperr.Abort(c, err, "Failed to render coupon")
		return
	}
	httperr.OK(c, status, msg, resp)
}

func (h *CouponHandler) respondCoupons(c *gin.Context, views []queries.CouponView) {
	resp, err := resdto.FromCouponViews(views)
	if err != nil {
		httperr.Abort(c, err, "Failed to render coupons")
		return
	}
	httperr.OK(c, http.StatusOK, "", resp)
}
