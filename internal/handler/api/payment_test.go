//go:build unit

package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"villa-booking/internal/domain/property"
	"villa-booking/internal/domain/user"
	"villa-booking/internal/handler/api"
	resdto "villa-booking/internal/handler/dto/response"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/commands"
	"villa-booking/internal/usecase/queries"
	"villa-booking/tests/common/builder"
	"villa-booking/tests/common/httptest"
	"villa-booking/tests/common/testutil"
	commandsmock "villa-booking/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PaymentHandlerTestSuite struct {
	suite.Suite
	router           *gin.Engine
	mockCtrl         *gomock.Controller
	mockPayments     *commandsmock.MockPaymentCommands
	mockReservations *commandsmock.MockReservationCommands
	userID           uuid.UUID
}

func (s *PaymentHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockPayments = commandsmock.NewMockPaymentCommands(s.mockCtrl)
	s.mockReservations = commandsmock.NewMockReservationCommands(s.mockCtrl)
	s.userID = uuid.New()
	handler := api.NewPaymentHandler(s.mockPayments, s.mockReservations)

	auth := mockAuth(s.userID, user.RoleUser)
	s.router.POST("/payment/order", auth, handler.CreateOrder)
	s.router.POST("/payment/verify", auth, handler.Verify)
}

func (s *PaymentHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestPaymentHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}

// mockAuth stands in for RequireAuth: any Authorization header authenticates as userID.
func mockAuth(userID uuid.UUID, role user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}
		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Next()
	}
}

func details(key string, value any) func(m map[string]any) {
	return testutil.Field("bookingDetails."+key, value)
}

type testCaseHandler struct {
	name         string
	mutate       func(m map[string]any)
	expectCode   int
	expectInBody string
}

// ================================================================================
// TestCreateOrder
// ================================================================================

func (s *PaymentHandlerTestSuite) TestCreateOrder() {
	url := "/payment/order"
	b := builder.NewBookingBuilder().WithUser(s.userID)
	reqBody := b.CreateOrderDTO()

	s.Run("success: quotes and returns the gateway order", func() {
		s.mockPayments.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p commands.CreateOrderParams) (*commands.OrderResult, error) {
				s.Equal(s.userID, p.UserID)
				s.Equal(b.PropertyID, p.PropertyID)
				s.Equal(10000.0, p.Amount)
				s.Equal(2, p.Stay.Nights())
				s.Equal(2, p.Guests)
				return &commands.OrderResult{OrderID: "order_abc", Amount: 1000000, Currency: "INR"}, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var body resdto.OrderResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("order_abc", body.ID)
		s.Equal(int64(1000000), body.Amount)
		s.Equal("INR", body.Currency)
	})

	s.Run("success: coupon code falls back to couponApplied", func() {
		m := testutil.DtoMap(s.T(), reqBody, details("couponApplied", map[string]any{"code": " summer10 ", "discount": 1000}))
		s.mockPayments.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p commands.CreateOrderParams) (*commands.OrderResult, error) {
				s.Equal("summer10", p.CouponCode)
				return &commands.OrderResult{OrderID: "order_c", Amount: 900000, Currency: "INR", Quote: &queries.Quote{}}, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, m, "bearer-token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		cases := []testCaseHandler{
			{name: "missing amount", mutate: testutil.Field("amount", nil), expectCode: http.StatusBadRequest},
			{name: "missing propertyId", mutate: testutil.Field("propertyId", nil), expectCode: http.StatusBadRequest},
			{name: "missing check-in", mutate: details("checkInDate", nil), expectCode: http.StatusBadRequest},
			{name: "zero guests", mutate: details("guests", 0), expectCode: http.StatusBadRequest},
			{name: "unparseable date", mutate: details("checkInDate", "02/06/2025"), expectCode: http.StatusBadRequest, expectInBody: "Invalid booking details"},
			{name: "check-out before check-in", mutate: details("checkOutDate", "2025-06-01"), expectCode: http.StatusBadRequest},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, testutil.DtoMap(s.T(), reqBody, tc.mutate), "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectInBody)
			})
		}
	})

	s.Run("error: 401 Unauthorized without a token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("error: 403 Forbidden when userId names another user", func() {
		m := testutil.DtoMap(s.T(), reqBody, testutil.Field("userId", uuid.NewString()))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, m, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Forbidden")
	})

	s.Run("success: userId naming the caller is accepted", func() {
		s.mockPayments.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
			Return(&commands.OrderResult{OrderID: "order_x", Amount: 1, Currency: "INR"}, nil).Times(1)
		m := testutil.DtoMap(s.T(), reqBody, testutil.Field("userId", s.userID.String()))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, m, "bearer-token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: command errors map to their category status", func() {
		cases := []struct {
			name       string
			err        error
			expectCode int
			expectMsg  string
		}{
			{name: "amount mismatch", err: commands.ErrAmountMismatch, expectCode: http.StatusBadRequest, expectMsg: commands.ErrAmountMismatch.Error()},
			{name: "unknown property", err: queries.ErrPropertyNotFound, expectCode: http.StatusNotFound},
			{name: "dates taken", err: property.ErrDatesUnavailable, expectCode: http.StatusConflict},
			{name: "provider failure", err: errs.Mark(errors.New("dial tcp: i/o timeout"), commands.ErrPaymentProvider), expectCode: http.StatusInternalServerError, expectMsg: "Payment provider error"},
			{name: "uncategorised", err: errors.New("pool exhausted"), expectCode: http.StatusInternalServerError, expectMsg: "Internal server error"},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockPayments.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(nil, tc.err).Times(1)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectMsg)
				s.NotContains(rec.Body.String(), "timeout")
				s.NotContains(rec.Body.String(), "pool exhausted")
			})
		}
	})
}

// ================================================================================
// TestVerify
// ================================================================================

func (s *PaymentHandlerTestSuite) TestVerify() {
	url := "/payment/verify"
	b := builder.NewBookingBuilder().WithUser(s.userID).WithTotal(900000).WithCoupon("SUMMER10", 100000)
	reqBody := b.VerifyDTO()
	created := b.MustDomain()

	s.Run("success: returns 201 Created for a new booking", func() {
		s.mockReservations.EXPECT().VerifyAndReserve(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p commands.VerifyParams) (*commands.ReserveResult, error) {
				want := b.VerifyParams()
				s.Equal(want.OrderID, p.OrderID)
				s.Equal(want.PaymentID, p.PaymentID)
				s.Equal(want.Signature, p.Signature)
				s.Equal(s.userID, p.UserID)
				s.Equal(want.Stay.String(), p.Stay.String())
				s.Require().NotNil(p.Coupon)
				s.Equal("SUMMER10", p.Coupon.Code)
				s.Equal(int64(100000), p.Coupon.Discount.Minor())
				return &commands.ReserveResult{Booking: created}, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var body resdto.VerifyResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(created.ID(), body.BookingID)
		s.Equal(b.PaymentID, body.PaymentID)
		s.False(body.Replayed)
	})

	s.Run("success: replay returns 200 OK with the existing booking", func() {
		s.mockReservations.EXPECT().VerifyAndReserve(gomock.Any(), gomock.Any()).
			Return(&commands.ReserveResult{Booking: created, IsReplayed: true}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var body resdto.VerifyResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(created.ID(), body.BookingID)
		s.True(body.Replayed)
	})

	s.Run("success: proof fields are trimmed", func() {
		m := testutil.DtoMap(s.T(), reqBody, testutil.Field("razorpay_signature", "  "+b.Signature+"\n"))
		s.mockReservations.EXPECT().VerifyAndReserve(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p commands.VerifyParams) (*commands.ReserveResult, error) {
				s.Equal(b.Signature, p.Signature)
				return &commands.ReserveResult{Booking: created}, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, m, "bearer-token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		cases := []testCaseHandler{
			{name: "missing order id", mutate: testutil.Field("razorpay_order_id", nil), expectCode: http.StatusBadRequest},
			{name: "missing payment id", mutate: testutil.Field("razorpay_payment_id", nil), expectCode: http.StatusBadRequest},
			{name: "missing signature", mutate: testutil.Field("razorpay_signature", nil), expectCode: http.StatusBadRequest},
			{name: "missing guests", mutate: details("guests", nil), expectCode: http.StatusBadRequest},
			{name: "negative coupon discount", mutate: details("couponApplied", map[string]any{"code": "X", "discount": -5}), expectCode: http.StatusBadRequest},
			{name: "malformed body", mutate: testutil.Field("propertyId", "not-a-uuid"), expectCode: http.StatusBadRequest},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, testutil.DtoMap(s.T(), reqBody, tc.mutate), "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectInBody)
			})
		}
	})

	s.Run("error: 403 Forbidden when userId names another user", func() {
		m := testutil.DtoMap(s.T(), reqBody, testutil.Field("userId", uuid.NewString()))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, m, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "")
	})

	s.Run("error: command errors map to their category status", func() {
		cases := []struct {
			name       string
			err        error
			expectCode int
			expectMsg  string
		}{
			{name: "bad signature", err: commands.ErrInvalidSignature, expectCode: http.StatusBadRequest, expectMsg: "signature"},
			{name: "not captured", err: commands.ErrPaymentNotCaptured, expectCode: http.StatusBadRequest},
			{name: "details differ from the paid order", err: commands.ErrOrderTermsMismatch, expectCode: http.StatusBadRequest, expectMsg: "paid order"},
			{name: "payment used by another user", err: commands.ErrPaymentAlreadyUsed, expectCode: http.StatusConflict},
			{name: "dates taken", err: property.ErrDatesUnavailable, expectCode: http.StatusConflict, expectMsg: "not available"},
			{name: "lock contention", err: errs.Mark(errors.New("lock wait"), commands.ErrResourceBusy), expectCode: http.StatusConflict},
			{name: "provider failure", err: errs.Mark(errors.New("502 from upstream"), commands.ErrPaymentProvider), expectCode: http.StatusInternalServerError, expectMsg: "Payment provider error"},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockReservations.EXPECT().VerifyAndReserve(gomock.Any(), gomock.Any()).Return(nil, tc.err).Times(1)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectMsg)
				s.NotContains(rec.Body.String(), "upstream")
			})
		}
	})
}
