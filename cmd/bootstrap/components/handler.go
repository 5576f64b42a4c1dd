package components

import (
	"villa-booking/internal/handler"
	"villa-booking/internal/handler/api"
	"villa-booking/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewPaymentHandler,
		api.NewBookingHandler,
		api.NewAvailabilityHandler,
		api.NewPricingHandler,
		api.NewCouponHandler,
		newHandlers,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

type handlerParams struct {
	fx.In

	Payment      *api.PaymentHandler
	Booking      *api.BookingHandler
	Availability *api.AvailabilityHandler
	Pricing      *api.PricingHandler
	Coupon       *api.CouponHandler
}

func newHandlers(p handlerParams) handler.Handlers {
	return handler.Handlers{
		Payment:      p.Payment,
		Booking:      p.Booking,
		Availability: p.Availability,
		Pricing:      p.Pricing,
		Coupon:       p.Coupon,
	}
}
