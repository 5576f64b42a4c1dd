//go:build unit

package api_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/refund"
	"villa-booking/internal/domain/user"
	"villa-booking/internal/handler/api"
	resdto "villa-booking/internal/handler/dto/response"
	"villa-booking/internal/pkg/invoice"
	"villa-booking/internal/usecase/commands"
	"villa-booking/internal/usecase/queries"
	"villa-booking/tests/common/builder"
	"villa-booking/tests/common/httptest"
	"villa-booking/tests/common/testutil"
	commandsmock "villa-booking/tests/mock/commands"
	queriesmock "villa-booking/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router            *gin.Engine
	mockCtrl          *gomock.Controller
	mockCancellations *commandsmock.MockCancellationCommands
	mockQueries       *queriesmock.MockBookingQueries
	userID            uuid.UUID
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCancellations = commandsmock.NewMockCancellationCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.userID = uuid.New()
	handler := api.NewBookingHandler(s.mockCancellations, s.mockQueries)

	auth := mockAuth(s.userID, user.RoleUser)
	s.router.POST("/bookings/cancel", auth, handler.Cancel)
	s.router.GET("/bookings", auth, handler.ListMine)
	s.router.GET("/bookings/:id", auth, handler.Get)
	s.router.GET("/bookings/:id/invoice", auth, handler.Invoice)
	s.router.GET("/host/bookings", auth, handler.ListForHost)
	s.router.GET("/admin/bookings", auth, handler.ListAll)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

// ================================================================================
// TestCancel
// ================================================================================

func (s *BookingHandlerTestSuite) TestCancel() {
	url := "/bookings/cancel"
	b := builder.NewBookingBuilder().WithUser(s.userID)
	reqBody := b.CancelDTO(8000, 2000)

	processedAt := time.Date(2025, time.May, 12, 9, 0, 0, 0, time.UTC)
	amount, _ := booking.NewMoney(800000)
	rf, err := refund.New(refund.Params{
		ID:              uuid.New(),
		BookingID:       b.ID,
		PropertyID:      b.PropertyID,
		UserID:          s.userID,
		GatewayRefundID: "rfnd_000001",
		PaymentID:       b.PaymentID,
		Amount:          amount,
		Currency:        "INR",
		Status:          refund.StatusProcessed,
		Notes:           map[string]string{"cancellationFee": "2000.00"},
		CreatedAt:       processedAt,
		ProcessedAt:     &processedAt,
	})
	s.Require().NoError(err)

	s.Run("success: refunds and returns the refund details", func() {
		s.mockCancellations.EXPECT().Cancel(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p commands.CancelParams) (*commands.CancellationResult, error) {
				s.Equal(b.ID, p.BookingID)
				s.Equal(s.userID, p.UserID)
				s.Equal(8000.0, p.RefundAmount)
				s.Equal(2000.0, p.CancellationFee)
				s.Equal("Change of plans", p.Reason)
				return &commands.CancellationResult{BookingID: b.ID, PaymentStatus: booking.PaymentRefunded, Refund: rf}, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var body resdto.CancelResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(b.ID, body.BookingID)
		s.Equal("refunded", body.PaymentStatus)
		s.Require().NotNil(body.RefundDetails)
		s.Equal("rfnd_000001", body.RefundDetails.GatewayRefundID)
		s.Equal(8000.0, body.RefundDetails.Amount)
		s.Equal("processed", body.RefundDetails.Status)
		s.Equal("2000.00", body.RefundDetails.Notes["cancellationFee"])
	})

	s.Run("success: zero refund cancels without refund details", func() {
		s.mockCancellations.EXPECT().Cancel(gomock.Any(), gomock.Any()).
			Return(&commands.CancellationResult{BookingID: b.ID, PaymentStatus: booking.PaymentNotEligibleToRefund}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, b.CancelDTO(0, 0), "bearer-token")

		var body resdto.CancelResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("not-eligible-for-refund", body.PaymentStatus)
		s.Nil(body.RefundDetails)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		cases := []testCaseHandler{
			{name: "missing bookingId", mutate: testutil.Field("bookingId", nil), expectCode: http.StatusBadRequest},
			{name: "missing refundAmount", mutate: testutil.Field("refundAmount", nil), expectCode: http.StatusBadRequest},
			{name: "missing cancellationFee", mutate: testutil.Field("cancellationFee", nil), expectCode: http.StatusBadRequest},
			{name: "reason too long", mutate: testutil.Field("reason", strings.Repeat("a", 501)), expectCode: http.StatusBadRequest},
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
		}{
			{name: "not found", err: queries.ErrBookingNotFound, expectCode: http.StatusNotFound},
			{name: "already cancelled", err: booking.ErrAlreadyCancelled, expectCode: http.StatusConflict},
			{name: "refund exceeds paid", err: commands.ErrRefundExceedsPaid, expectCode: http.StatusBadRequest},
			{name: "refund failed at the gateway", err: commands.ErrPaymentProvider, expectCode: http.StatusInternalServerError},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockCancellations.EXPECT().Cancel(gomock.Any(), gomock.Any()).Return(nil, tc.err).Times(1)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, "")
			})
		}
	})
}

// ================================================================================
// TestReads
// ================================================================================

func (s *BookingHandlerTestSuite) TestListMine() {
	view := builder.NewBookingBuilder().WithUser(s.userID).WithTotal(900000).WithCoupon("SUMMER10", 100000).BuildView()

	s.mockQueries.EXPECT().ListForUser(gomock.Any(), s.userID).Return([]queries.BookingView{*view}, nil).Times(1)
	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings", nil, "bearer-token")

	var body resdto.BookingListResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	s.Require().Len(body.Items, 1)
	got := body.Items[0]
	s.Equal(view.ID, got.ID)
	s.Equal("Sea View Villa", got.PropertyTitle)
	s.Equal(9000.0, got.TotalPrice)
	s.Equal(2, got.Nights)
	s.Equal(builder.Monday, got.CheckIn.UTC())
	s.Require().NotNil(got.Coupon)
	s.Equal(1000.0, got.Coupon.Discount)
	s.Equal(10000.0, got.Coupon.OriginalPrice)
	s.Nil(body.NextCursor)
}

func (s *BookingHandlerTestSuite) TestListMine_Empty() {
	s.mockQueries.EXPECT().ListForUser(gomock.Any(), s.userID).Return(nil, nil).Times(1)
	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings", nil, "bearer-token")

	var body resdto.BookingListResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	s.NotNil(body.Items)
	s.Empty(body.Items)
}

func (s *BookingHandlerTestSuite) TestGet() {
	view := builder.NewBookingBuilder().WithUser(s.userID).BuildView()

	s.Run("success", func() {
		s.mockQueries.EXPECT().GetForUser(gomock.Any(), view.ID, s.userID).Return(view, nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+view.ID.String(), nil, "bearer-token")

		var body resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(view.ID, body.ID)
		s.Equal("confirmed", body.Status)
		s.Equal("paid", body.PaymentStatus)
	})

	s.Run("error: 404 for another user's booking", func() {
		s.mockQueries.EXPECT().GetForUser(gomock.Any(), view.ID, s.userID).Return(nil, queries.ErrBookingNotFound).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+view.ID.String(), nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "booking not found")
	})

	s.Run("error: 400 for a malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/not-a-uuid", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})

	s.Run("error: 401 without a token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+view.ID.String(), nil, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *BookingHandlerTestSuite) TestInvoice() {
	bookingID := uuid.New()
	inv := &invoice.Invoice{
		Number:        invoice.Number(2025, 1),
		BookingRef:    invoice.BookingRef("pay_Nx81kQz3aBc"),
		IssuedAt:      time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC),
		Guest:         invoice.Party{Name: "Asha Rao", Email: "asha@example.com"},
		Property:      invoice.Party{Name: "Sea View Villa", Address: "12 Beach Road, Goa"},
		CheckIn:       builder.Monday,
		CheckOut:      builder.Wednesday,
		Nights:        2,
		Guests:        2,
		Lines:         []invoice.Line{{Description: "Accommodation (2 nights)", Amount: 1000000}},
		Subtotal:      1000000,
		Discount:      100000,
		CouponCode:    "SUMMER10",
		Total:         900000,
		Currency:      "INR",
		PaymentID:     "pay_Nx81kQz3aBc",
		PaymentMethod: "upi",
		Status:        "confirmed",
	}

	s.Run("success: renders a plain-text attachment", func() {
		s.mockQueries.EXPECT().InvoiceForUser(gomock.Any(), bookingID, s.userID).Return(inv, nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+bookingID.String()+"/invoice", nil, "bearer-token")

		s.Equal(http.StatusOK, rec.Code)
		httptest.AssertHeaders(s.T(), rec, map[string]string{
			"Content-Type":        "text/plain; charset=utf-8",
			"Content-Disposition": `attachment; filename="invoice-VF-2025-0001.txt"`,
		})
		body := rec.Body.String()
		s.Contains(body, "INVOICE VF/2025/0001")
		s.Contains(body, "Booking reference: VF-1KQZ3ABC")
		s.Contains(body, "Billed to: Asha Rao")
		s.Contains(body, "-INR 1000.00")
		s.Contains(body, "INR 9000.00")
	})

	s.Run("error: 404 when the booking is not the caller's", func() {
		s.mockQueries.EXPECT().InvoiceForUser(gomock.Any(), bookingID, s.userID).Return(nil, queries.ErrBookingNotFound).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+bookingID.String()+"/invoice", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "")
	})
}

func (s *BookingHandlerTestSuite) TestListForHost() {
	hostID := s.userID
	view := builder.NewBookingBuilder().With(func(b *builder.BookingBuilder) { b.HostID = &hostID }).BuildView()

	s.mockQueries.EXPECT().ListForHost(gomock.Any(), s.userID).Return([]queries.BookingView{*view}, nil).Times(1)
	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/host/bookings", nil, "bearer-token")

	var body resdto.BookingListResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	s.Require().Len(body.Items, 1)
	s.Require().NotNil(body.Items[0].HostID)
	s.Equal(hostID, *body.Items[0].HostID)
}

func (s *BookingHandlerTestSuite) TestListAll() {
	view := builder.NewBookingBuilder().BuildView()

	s.Run("success: passes the cursor and returns the next one", func() {
		s.mockQueries.EXPECT().ListAll(gomock.Any(), &queries.Cursor{After: "abc"}, 5).
			Return([]queries.BookingView{*view}, &queries.Cursor{After: "next"}, nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/admin/bookings?after=abc&limit=5", nil, "bearer-token")

		var body resdto.BookingListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Len(body.Items, 1)
		s.Require().NotNil(body.NextCursor)
		s.Equal("next", body.NextCursor.After)
	})

	s.Run("success: first page without a cursor", func() {
		s.mockQueries.EXPECT().ListAll(gomock.Any(), nil, 0).Return(nil, nil, nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/admin/bookings", nil, "bearer-token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 400 for a negative limit", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/admin/bookings?limit=-1", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("error: 400 for an invalid cursor", func() {
		s.mockQueries.EXPECT().ListAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil, queries.ErrInvalidCursor).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/admin/bookings?after=garbage", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "invalid cursor")
	})

	s.Run("error: 500 hides store failures", func() {
		s.mockQueries.EXPECT().ListAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil, errors.New("connection reset")).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/admin/bookings", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Internal server error")
		s.NotContains(rec.Body.String(), "connection reset")
	})
}
