package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/property"
	"villa-booking/internal/infra"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/pkg/metrics"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

const noteDateLayout = "02/01/06"

type CreateOrderParams struct {
	UserID     uuid.UUID
	PropertyID uuid.UUID
	// Amount is the client-side total in major units. It must match the server quote.
	Amount     float64
	Stay       booking.StayDates
	Guests     int
	CouponCode string
}

type OrderResult struct {
	OrderID  string
	Amount   int64
	Currency string
	Quote    *queries.Quote
}

type PaymentCommands interface {
	// CreateOrder opens a gateway order for the quoted amount. No local state is written.
	CreateOrder(ctx context.Context, params CreateOrderParams) (*OrderResult, error)
}

type paymentCommandsImpl struct {
	uow     shared.UnitOfWork
	pricing queries.PricingQueries
	gateway PaymentGateway
	clock   clock.Clock
	metrics *metrics.Recorder
}

func NewPaymentCommands(
	uow shared.UnitOfWork,
	pricing queries.PricingQueries,
	gateway PaymentGateway,
	clk clock.Clock,
	rec *metrics.Recorder,
) PaymentCommands {
	return &paymentCommandsImpl{
		uow:     uow,
		pricing: pricing,
		gateway: gateway,
		clock:   clk,
		metrics: rec,
	}
}

func (p *paymentCommandsImpl) CreateOrder(ctx context.Context, params CreateOrderParams) (*OrderResult, error) {
	result, err := p.createOrder(ctx, params)
	if err != nil {
		p.metrics.Order(outcomeOf(err))
		return nil, err
	}
	p.metrics.Order("created")
	return result, nil
}

func (p *paymentCommandsImpl) createOrder(ctx context.Context, params CreateOrderParams) (*OrderResult, error) {
	if math.IsNaN(params.Amount) || math.IsInf(params.Amount, 0) || params.Amount <= 0 {
		return nil, ErrInvalidOrderAmount
	}
	clientAmount, err := booking.MoneyFromMajor(params.Amount)
	if err != nil {
		return nil, ErrInvalidOrderAmount
	}

	prop, err := p.uow.CommandReads().PropertyByID(ctx, params.PropertyID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, queries.ErrPropertyNotFound
		}
		return nil, errs.Wrap(err, "failed to load property")
	}
	if !prop.IsActive() {
		return nil, property.ErrPropertyNotListed
	}
	if err := prop.CheckGuests(params.Guests); err != nil {
		return nil, err
	}
	// Early reject only; reservation re-checks under a lock.
	if !prop.IsAvailable(params.Stay) {
		return nil, property.ErrDatesUnavailable
	}

	quote, err := p.pricing.QuoteProperty(ctx, prop, params.Stay, params.CouponCode)
	if err != nil {
		return nil, err
	}
	if clientAmount != quote.FinalAmount {
		slog.Info("order amount mismatch",
			"property_id", params.PropertyID,
			"client_amount", clientAmount.Minor(),
			"quoted_amount", quote.FinalAmount.Minor())
		return nil, ErrAmountMismatch
	}

	now := p.clock.Now()
	req := OrderRequest{
		Amount:   quote.FinalAmount.Minor(),
		Currency: quote.Currency,
		Receipt:  fmt.Sprintf("booking_%d", now.UnixMilli()),
		Notes:    orderNotes(params, quote),
	}

	started := time.Now()
	order, err := p.gateway.CreateOrder(ctx, req)
	p.metrics.GatewayCall("create_order", started, err)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "gateway create order"), ErrPaymentProvider)
	}

	slog.Info("payment order created",
		"order_id", order.ID,
		"property_id", params.PropertyID,
		"user_id", params.UserID,
		"amount", order.Amount)

	return &OrderResult{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Quote:    quote,
	}, nil
}

func orderNotes(params CreateOrderParams, quote *queries.Quote) map[string]string {
	notes := map[string]string{
		"propertyId": params.PropertyID.String(),
		"userId":     params.UserID.String(),
		"checkIn":    params.Stay.CheckIn().Format(noteDateLayout),
		"checkOut":   params.Stay.CheckOut().Format(noteDateLayout),
		"guests":     strconv.Itoa(params.Guests),
		"nights":     strconv.Itoa(quote.Nights),
	}
	// A coupon below its minimum purchase discounts nothing and is not recorded.
	if quote.Coupon != nil && !quote.Discount.IsZero() {
		notes["couponCode"] = quote.Coupon.Code
		notes["couponDiscount"] = strconv.FormatFloat(quote.Discount.Major(), 'f', 2, 64)
	}
	return notes
}

// orderTerms is what an order was opened for, read back from its notes.
type orderTerms struct {
	propertyID uuid.UUID
	userID     uuid.UUID
	stay       booking.StayDates
	guests     int
	couponCode string
	discount   booking.Money
}

func parseOrderNotes(notes map[string]string) (orderTerms, error) {
	var t orderTerms
	var err error
	if t.propertyID, err = uuid.Parse(notes["propertyId"]); err != nil {
		return orderTerms{}, errs.Wrap(err, "order notes: propertyId")
	}
	if t.userID, err = uuid.Parse(notes["userId"]); err != nil {
		return orderTerms{}, errs.Wrap(err, "order notes: userId")
	}
	in, err := time.Parse(noteDateLayout, notes["checkIn"])
	if err != nil {
		return orderTerms{}, errs.Wrap(err, "order notes: checkIn")
	}
	out, err := time.Parse(noteDateLayout, notes["checkOut"])
	if err != nil {
		return orderTerms{}, errs.Wrap(err, "order notes: checkOut")
	}
	if t.stay, err = booking.NewStayDates(in, out); err != nil {
		return orderTerms{}, errs.Wrap(err, "order notes: stay")
	}
	if t.guests, err = strconv.Atoi(notes["guests"]); err != nil {
		return orderTerms{}, errs.Wrap(err, "order notes: guests")
	}
	if code := notes["couponCode"]; code != "" {
		major, err := strconv.ParseFloat(notes["couponDiscount"], 64)
		if err != nil {
			return orderTerms{}, errs.Wrap(err, "order notes: couponDiscount")
		}
		if t.discount, err = booking.MoneyFromMajor(major); err != nil {
			return orderTerms{}, errs.Wrap(err, "order notes: couponDiscount")
		}
		t.couponCode = code
	}
	return t, nil
}

// mismatch names the first verify field that differs from the order, or "".
func (t orderTerms) mismatch(p VerifyParams) string {
	switch {
	case t.propertyID != p.PropertyID:
		return "propertyId"
	case t.userID != p.UserID:
		return "userId"
	case !t.stay.Equal(p.Stay):
		return "stay"
	case t.guests != p.Guests:
		return "guests"
	case p.Coupon != nil && t.couponCode != "" && !strings.EqualFold(strings.TrimSpace(p.Coupon.Code), t.couponCode):
		return "couponCode"
	}
	return ""
}

// outcomeOf labels an error by category for metrics.
func outcomeOf(err error) string {
	switch errs.Category(err) {
	case errs.ErrValidation:
		return "invalid"
	case errs.ErrNotFound:
		return "not_found"
	case errs.ErrAuthenticity:
		return "rejected"
	case errs.ErrProvider:
		return "provider_error"
	case errs.ErrConflict:
		return "conflict"
	case errs.ErrState:
		return "state"
	case errs.ErrForbidden:
		return "forbidden"
	default:
		return "error"
	}
}
