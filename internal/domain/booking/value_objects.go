package booking

import (
	"math"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Money is an amount in minor currency units (paise).
type Money struct {
	minor int64
}

func NewMoney(minor int64) (Money, error) {
	if minor < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{minor: minor}, nil
}

// MoneyFromMajor converts a major-unit amount (rupees) using round(amount*100).
func MoneyFromMajor(amount float64) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, ErrInvalidAmount
	}
	return NewMoney(int64(math.Round(amount * 100)))
}

func (m Money) Minor() int64 {
	return m.minor
}

func (m Money) Major() float64 {
	return float64(m.minor) / 100.0
}

func (m Money) IsZero() bool {
	return m.minor == 0
}

func (m Money) Add(other Money) Money {
	return Money{minor: m.minor + other.minor}
}

// Sub floors at zero.
func (m Money) Sub(other Money) Money {
	if other.minor >= m.minor {
		return Money{}
	}
	return Money{minor: m.minor - other.minor}
}

func (m Money) Multiply(n int) Money {
	return Money{minor: m.minor * int64(n)}
}

func (m Money) LessThan(other Money) bool {
	return m.minor < other.minor
}

// StayDates is a half-open range of calendar days [checkIn, checkOut).
type StayDates struct {
	checkIn  time.Time
	checkOut time.Time
}

func NewStayDates(checkIn, checkOut time.Time) (StayDates, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return StayDates{}, ErrInvalidStayDates
	}
	in, out := TruncateToDay(checkIn), TruncateToDay(checkOut)
	if !out.After(in) {
		return StayDates{}, ErrInvalidStayDates
	}
	return StayDates{checkIn: in, checkOut: out}, nil
}

// ParseStayDates accepts YYYY-MM-DD or RFC3339 values.
func ParseStayDates(checkIn, checkOut string) (StayDates, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return StayDates{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return StayDates{}, err
	}
	return NewStayDates(in, out)
}

func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return TruncateToDay(t), nil
}

func TruncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func (s StayDates) CheckIn() time.Time {
	return s.checkIn
}

func (s StayDates) CheckOut() time.Time {
	return s.checkOut
}

func (s StayDates) Nights() int {
	return int(s.checkOut.Sub(s.checkIn).Hours() / 24)
}

func (s StayDates) Equal(other StayDates) bool {
	return s.checkIn.Equal(other.checkIn) && s.checkOut.Equal(other.checkOut)
}

// Overlaps is true when the two ranges share at least one night.
// Adjacent ranges, where one checks out on the day the other checks in, do not overlap.
func (s StayDates) Overlaps(other StayDates) bool {
	return other.checkIn.Before(s.checkOut) && other.checkOut.After(s.checkIn)
}

// EachNight yields the date of every night of the stay.
func (s StayDates) EachNight(fn func(night time.Time)) {
	for d := s.checkIn; d.Before(s.checkOut); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

func (s StayDates) String() string {
	return "[" + s.checkIn.Format(DateLayout) + ", " + s.checkOut.Format(DateLayout) + ")"
}

const DefaultPaymentMethod = "unknown"

// PaymentDetails is set once at confirmation.
type PaymentDetails struct {
	orderID   string
	paymentID string
	signature string
	method    string
	paidAt    time.Time
}

func NewPaymentDetails(orderID, paymentID, signature, method string, paidAt time.Time) (PaymentDetails, error) {
	if orderID == "" || paymentID == "" || signature == "" {
		return PaymentDetails{}, ErrIncompletePayment
	}
	if method == "" {
		method = DefaultPaymentMethod
	}
	return PaymentDetails{
		orderID:   orderID,
		paymentID: paymentID,
		signature: signature,
		method:    method,
		paidAt:    paidAt,
	}, nil
}

func (p PaymentDetails) OrderID() string { return p.orderID }
func (p PaymentDetails) PaymentID() string { return p.paymentID }
func (p PaymentDetails) Signature() string { return p.signature }
func (p PaymentDetails) Method() string { return p.method }
func (p PaymentDetails) PaidAt() time.Time { return p.paidAt }

func (p PaymentDetails) withDefaultMethod() PaymentDetails {
	if p.method == "" {
		p.method = DefaultPaymentMethod
	}
	return p
}

// CouponDetails records the coupon applied at booking time. OriginalPrice is
// always final + discount.
type CouponDetails struct {
	code          string
	discount      Money
	originalPrice Money
}

func NewCouponDetails(code string, discount, finalPrice Money) (CouponDetails, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return CouponDetails{}, ErrInvalidCouponDetails
	}
	return CouponDetails{
		code:          code,
		discount:      discount,
		originalPrice: finalPrice.Add(discount),
	}, nil
}

func (c CouponDetails) Code() string { return c.code }
func (c CouponDetails) Discount() Money { return c.discount }
func (c CouponDetails) OriginalPrice() Money { return c.originalPrice }
