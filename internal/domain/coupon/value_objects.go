package coupon

import (
	"math"
	"regexp"
	"strings"

	"villa-booking/internal/domain/booking"
)

var couponCodeRegex = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

type Code string

// NewCouponCode upper-cases and trims the code before validating it.
func NewCouponCode(code string) (Code, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if !couponCodeRegex.MatchString(code) {
		return Code(""), ErrInvalidCouponCode
	}
	return Code(code), nil
}

func (c Code) String() string {
	return string(c)
}

type Scope string

const (
	ScopePlatform Scope = "platform"
	ScopeHost     Scope = "host"
)

func (s Scope) String() string {
	return string(s)
}

// Percentage is a discount percentage in [0, 100].
type Percentage struct {
	value float64
}

func NewPercentage(v float64) (Percentage, error) {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return Percentage{}, ErrInvalidDiscountPercent
	}
	return Percentage{value: v}, nil
}

func (p Percentage) Value() float64 {
	return p.value
}

// Of returns round(amount * p / 100).
func (p Percentage) Of(amount booking.Money) booking.Money {
	m, _ := booking.NewMoney(int64(math.Round(float64(amount.Minor()) * p.value / 100.0)))
	return m
}

// Application is the result of applying a coupon to a base amount.
// Base == Final + Discount holds for every application.
type Application struct {
	Base     booking.Money
	Discount booking.Money
	Final    booking.Money
	Capped   bool
}
