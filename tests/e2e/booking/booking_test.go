//go:build e2e

package booking_test

import (
	"net/http"
	"sync"
	"testing"

	"villa-booking/internal/domain/user"
	resdto "villa-booking/internal/handler/dto/response"
	"villa-booking/tests/common/builder"
	"villa-booking/tests/common/dbtest"
	"villa-booking/tests/common/httptest"
	"villa-booking/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type BookingE2ETestSuite struct {
	e2e.SharedSuite
}

func TestBookingE2ESuite(t *testing.T) {
	suite.Run(t, new(BookingE2ETestSuite))
}

type fixture struct {
	guestID    uuid.UUID
	hostID     uuid.UUID
	propertyID uuid.UUID
	token      string
}

func (s *BookingE2ETestSuite) seed() fixture {
	t := s.T()
	hostID := dbtest.CreateTestUser(t, s.DB, "host@example.com", "host")
	guestID := dbtest.CreateTestUser(t, s.DB, "guest@example.com", "user")
	propertyID := dbtest.CreateTestProperty(t, s.DB, hostID, "Sea View Villa", 500000, 800000, 4)
	return fixture{
		guestID:    guestID,
		hostID:     hostID,
		propertyID: propertyID,
		token:      s.Tokens.GenerateToken(t, guestID, user.RoleUser),
	}
}

// checkout opens an order for b and pays it at the gateway, setting the proof on b.
func (s *BookingE2ETestSuite) checkout(b *builder.BookingBuilder, token string) *resdto.OrderResponse {
	rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/order", b.CreateOrderDTO(), token)
	var order resdto.OrderResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &order)

	b.OrderID = order.ID
	b.PaymentID, b.Signature = s.Gateway.Pay(order.ID, order.Amount)
	return &order
}

func (s *BookingE2ETestSuite) TestBookingLifecycle() {
	s.Run("quote, pay, verify, invoice and cancel", func() {
		f := s.seed()
		b := builder.NewBookingBuilder().WithProperty(f.propertyID).WithUser(f.guestID)

		quoteRec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/pricing/quote", map[string]any{
			"propertyId": f.propertyID.String(),
			"checkIn":    "2025-06-02",
			"checkOut":   "2025-06-04",
		}, "")
		var quote resdto.QuoteResponse
		httptest.AssertSuccessResponse(s.T(), quoteRec, http.StatusOK, &quote)
		s.Equal(10000.0, quote.FinalAmount)

		order := s.checkout(b, f.token)
		s.Equal(int64(1000000), order.Amount)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/verify", b.VerifyDTO(), f.token)
		var verified resdto.VerifyResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &verified)
		s.Equal(1, dbtest.CountRows(s.T(), s.DB, "bookings", "id = $1", verified.BookingID))
		s.Equal(1, dbtest.CountRows(s.T(), s.DB, "property_booked_dates", "property_id = $1", f.propertyID))
		s.Equal(2, dbtest.CountRows(s.T(), s.DB, "notification_jobs", "topic = 'booking.confirmed'"))

		// Replaying the checkout callback returns the same booking.
		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/verify", b.VerifyDTO(), f.token)
		var replayed resdto.VerifyResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &replayed)
		s.Equal(verified.BookingID, replayed.BookingID)
		s.Equal(1, dbtest.CountRows(s.T(), s.DB, "bookings", ""))

		avail := httptest.PerformRequest(s.T(), s.Router, http.MethodGet,
			"/api/properties/"+f.propertyID.String()+"/availability?checkIn=2025-06-03&checkOut=2025-06-05", nil, "")
		var availability resdto.AvailabilityResponse
		httptest.AssertSuccessResponse(s.T(), avail, http.StatusOK, &availability)
		s.False(availability.Available)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/bookings", nil, f.token)
		var list resdto.BookingListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &list)
		s.Require().Len(list.Items, 1)
		expected := resdto.BookingResponse{
			ID:            verified.BookingID,
			PropertyID:    f.propertyID,
			PropertyTitle: "Sea View Villa",
			UserID:        f.guestID,
			Nights:        2,
			Guests:        2,
			TotalPrice:    10000,
			Status:        "confirmed",
			PaymentStatus: "paid",
			OrderID:       b.OrderID,
			PaymentID:     b.PaymentID,
			PaymentMethod: "upi",
		}
		opts := []cmp.Option{
			cmpopts.IgnoreFields(resdto.BookingResponse{},
				"PropertyAddress", "GuestName", "GuestEmail", "HostID", "CheckIn", "CheckOut", "PaidAt", "CreatedAt"),
		}
		if diff := cmp.Diff(expected, list.Items[0], opts...); diff != "" {
			s.T().Errorf("booking list item mismatch (-want +got):\n%s", diff)
		}

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/bookings/"+verified.BookingID.String()+"/invoice", nil, f.token)
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), "INR 10000.00")

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/bookings/cancel", map[string]any{
			"bookingId":       verified.BookingID.String(),
			"refundAmount":    8000,
			"cancellationFee": 2000,
			"reason":          "Change of plans",
		}, f.token)
		var cancelled resdto.CancelResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &cancelled)
		s.Equal("refunded", cancelled.PaymentStatus)
		s.Require().NotNil(cancelled.RefundDetails)
		s.Equal(8000.0, cancelled.RefundDetails.Amount)
		s.Equal(int64(800000), s.Gateway.LastRefundAmount())
		s.Equal(1, dbtest.CountRows(s.T(), s.DB, "refunds", "booking_id = $1", verified.BookingID))
		s.Equal(0, dbtest.CountRows(s.T(), s.DB, "property_booked_dates", "property_id = $1", f.propertyID))

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/bookings/cancel", map[string]any{
			"bookingId":       verified.BookingID.String(),
			"refundAmount":    0,
			"cancellationFee": 0,
		}, f.token)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "already cancelled")
	})
}

func (s *BookingE2ETestSuite) TestVerifyRejections() {
	s.Run("tampered signature writes nothing", func() {
		f := s.seed()
		b := builder.NewBookingBuilder().WithProperty(f.propertyID).WithUser(f.guestID)
		s.checkout(b, f.token)
		b.Signature = "tampered"

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/verify", b.VerifyDTO(), f.token)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "signature")
		s.Equal(0, dbtest.CountRows(s.T(), s.DB, "bookings", ""))
		s.Equal(0, dbtest.CountRows(s.T(), s.DB, "notification_jobs", ""))
	})

	s.Run("payment booked by another user", func() {
		f := s.seed()
		b := builder.NewBookingBuilder().WithProperty(f.propertyID).WithUser(f.guestID)
		s.checkout(b, f.token)
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/verify", b.VerifyDTO(), f.token)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)

		otherID := dbtest.CreateTestUser(s.T(), s.DB, "other@example.com", "user")
		other := s.Tokens.GenerateToken(s.T(), otherID, user.RoleUser)
		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/verify", b.VerifyDTO(), other)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")
		s.Equal(1, dbtest.CountRows(s.T(), s.DB, "bookings", ""))
	})

	s.Run("blocked dates cannot be ordered", func() {
		f := s.seed()
		dbtest.CreateBlockedDates(s.T(), s.DB, f.propertyID, builder.Monday.AddDate(0, 0, 1), builder.Wednesday)
		b := builder.NewBookingBuilder().WithProperty(f.propertyID).WithUser(f.guestID)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/order", b.CreateOrderDTO(), f.token)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "not available")
	})

	s.Run("no token", func() {
		b := builder.NewBookingBuilder()
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/verify", b.VerifyDTO(), "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Access token required")
	})
}

func (s *BookingE2ETestSuite) TestConcurrentVerification() {
	s.Run("only one of two paid checkouts for the same dates is booked", func() {
		f := s.seed()
		otherID := dbtest.CreateTestUser(s.T(), s.DB, "other@example.com", "user")
		tokens := []string{f.token, s.Tokens.GenerateToken(s.T(), otherID, user.RoleUser)}
		bookings := []*builder.BookingBuilder{
			builder.NewBookingBuilder().WithProperty(f.propertyID).WithUser(f.guestID),
			builder.NewBookingBuilder().WithProperty(f.propertyID).WithUser(otherID),
		}
		for i, b := range bookings {
			s.checkout(b, tokens[i])
		}

		codes := make([]int, len(bookings))
		var wg sync.WaitGroup
		for i, b := range bookings {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/payment/verify", b.VerifyDTO(), tokens[i])
				codes[i] = rec.Code
			}()
		}
		wg.Wait()

		s.ElementsMatch([]int{http.StatusCreated, http.StatusConflict}, codes)
		s.Equal(1, dbtest.CountRows(s.T(), s.DB, "bookings", ""))
		s.Equal(1, dbtest.CountRows(s.T(), s.DB, "property_booked_dates", ""))
	})
}
