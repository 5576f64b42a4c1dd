//go:build unit || e2e

package builder

import (
	"strconv"
	"strings"
	"time"

	"villa-booking/internal/domain/booking"
	reqdto "villa-booking/internal/handler/dto/request"
	"villa-booking/internal/usecase/commands"
	"villa-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	UserID     uuid.UUID
	HostID     *uuid.UUID
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
	TotalPrice int64
	OrderID    string
	PaymentID  string
	Signature  string
	Method     string
	CouponCode string
	Discount   int64
	CreatedAt  time.Time
}

// NewBookingBuilder describes a two-night mid-week stay paid in full.
func NewBookingBuilder() *BookingBuilder {
	return &BookingBuilder{
		ID:         uuid.New(),
		PropertyID: uuid.New(),
		UserID:     uuid.New(),
		CheckIn:    Monday,
		CheckOut:   Wednesday,
		Guests:     2,
		TotalPrice: 1000000,
		OrderID:    "order_" + randomSuffix(),
		PaymentID:  "pay_" + randomSuffix(),
		Signature:  "sig",
		Method:     "card",
		CreatedAt:  time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC),
	}
}

func randomSuffix() string {
	return uuid.NewString()[:8]
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) WithProperty(propertyID uuid.UUID) *BookingBuilder {
	b.PropertyID = propertyID
	return b
}

func (b *BookingBuilder) WithUser(userID uuid.UUID) *BookingBuilder {
	b.UserID = userID
	return b
}

func (b *BookingBuilder) WithStay(checkIn, checkOut time.Time) *BookingBuilder {
	b.CheckIn = checkIn
	b.CheckOut = checkOut
	return b
}

func (b *BookingBuilder) WithTotal(minor int64) *BookingBuilder {
	b.TotalPrice = minor
	return b
}

func (b *BookingBuilder) WithCoupon(code string, discount int64) *BookingBuilder {
	b.CouponCode = code
	b.Discount = discount
	return b
}

func (b *BookingBuilder) BuildDomain() (*booking.Booking, error) {
	stay, err := booking.NewStayDates(b.CheckIn, b.CheckOut)
	if err != nil {
		return nil, err
	}
	total, err := booking.NewMoney(b.TotalPrice)
	if err != nil {
		return nil, err
	}
	payment, err := booking.NewPaymentDetails(b.OrderID, b.PaymentID, b.Signature, b.Method, b.CreatedAt)
	if err != nil {
		return nil, err
	}
	var cd *booking.CouponDetails
	if b.CouponCode != "" {
		discount, err := booking.NewMoney(b.Discount)
		if err != nil {
			return nil, err
		}
		c, err := booking.NewCouponDetails(b.CouponCode, discount, total)
		if err != nil {
			return nil, err
		}
		cd = &c
	}
	return booking.NewConfirmed(b.ID, booking.ConfirmParams{
		PropertyID: b.PropertyID,
		UserID:     b.UserID,
		HostID:     b.HostID,
		Stay:       stay,
		Guests:     b.Guests,
		TotalPrice: total,
		Payment:    payment,
		Coupon:     cd,
	}, b.CreatedAt)
}

func (b *BookingBuilder) MustDomain() *booking.Booking {
	bk, err := b.BuildDomain()
	if err != nil {
		panic(err)
	}
	return bk
}

func (b *BookingBuilder) BuildView() *queries.BookingView {
	v := queries.NewBookingView(b.MustDomain(), &queries.PropertySummary{
		ID:      b.PropertyID,
		HostID:  b.HostID,
		Title:   "Sea View Villa",
		Address: "12 Beach Road, Goa",
	}, nil)
	return &v
}

func (b *BookingBuilder) VerifyParams() commands.VerifyParams {
	p := commands.VerifyParams{
		OrderID:    b.OrderID,
		PaymentID:  b.PaymentID,
		Signature:  b.Signature,
		PropertyID: b.PropertyID,
		UserID:     b.UserID,
		Stay:       Stay(b.CheckIn, b.CheckOut),
		Guests:     b.Guests,
	}
	if b.CouponCode != "" {
		discount, _ := booking.NewMoney(b.Discount)
		p.Coupon = &commands.AppliedCoupon{Code: b.CouponCode, Discount: discount}
	}
	return p
}

func (b *BookingBuilder) CreateOrderParams() commands.CreateOrderParams {
	return commands.CreateOrderParams{
		UserID:     b.UserID,
		PropertyID: b.PropertyID,
		Amount:     float64(b.TotalPrice) / 100,
		Stay:       Stay(b.CheckIn, b.CheckOut),
		Guests:     b.Guests,
		CouponCode: b.CouponCode,
	}
}

// OrderRequest is the order CreateOrder opens for this booking once it is quoted
// at TotalPrice.
func (b *BookingBuilder) OrderRequest() commands.OrderRequest {
	notes := map[string]string{
		"propertyId": b.PropertyID.String(),
		"userId":     b.UserID.String(),
		"checkIn":    b.CheckIn.Format("02/01/06"),
		"checkOut":   b.CheckOut.Format("02/01/06"),
		"guests":     strconv.Itoa(b.Guests),
		"nights":     strconv.Itoa(Stay(b.CheckIn, b.CheckOut).Nights()),
	}
	if b.CouponCode != "" {
		notes["couponCode"] = strings.ToUpper(b.CouponCode)
		notes["couponDiscount"] = strconv.FormatFloat(float64(b.Discount)/100, 'f', 2, 64)
	}
	return commands.OrderRequest{
		Amount:   b.TotalPrice,
		Currency: "INR",
		Receipt:  "booking_" + randomSuffix(),
		Notes:    notes,
	}
}

func (b *BookingBuilder) BookingDetailsDTO() reqdto.BookingDetailsRequest {
	d := reqdto.BookingDetailsRequest{
		CheckInDate:  b.CheckIn.Format(booking.DateLayout),
		CheckOutDate: b.CheckOut.Format(booking.DateLayout),
		Guests:       b.Guests,
	}
	if b.CouponCode != "" {
		d.CouponCode = b.CouponCode
		d.CouponApplied = &reqdto.CouponAppliedRequest{Code: b.CouponCode, Discount: float64(b.Discount) / 100}
	}
	return d
}

func (b *BookingBuilder) CreateOrderDTO() reqdto.CreateOrderRequest {
	return reqdto.CreateOrderRequest{
		Amount:         float64(b.TotalPrice) / 100,
		PropertyID:     b.PropertyID,
		BookingDetails: b.BookingDetailsDTO(),
	}
}

func (b *BookingBuilder) VerifyDTO() reqdto.VerifyPaymentRequest {
	return reqdto.VerifyPaymentRequest{
		OrderID:        b.OrderID,
		PaymentID:      b.PaymentID,
		Signature:      b.Signature,
		PropertyID:     b.PropertyID,
		BookingDetails: b.BookingDetailsDTO(),
	}
}

func (b *BookingBuilder) CancelDTO(refund, fee float64) reqdto.CancelBookingRequest {
	return reqdto.CancelBookingRequest{
		BookingID:       b.ID,
		RefundAmount:    &refund,
		CancellationFee: &fee,
		Reason:          "Change of plans",
	}
}
