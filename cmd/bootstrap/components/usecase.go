package components

import (
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/jwt"
	"villa-booking/internal/pkg/metrics"
	"villa-booking/internal/usecase"
	"villa-booking/internal/usecase/commands"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewPaymentCommands,
		commands.NewReservationCommands,
		func(
			uow shared.UnitOfWork,
			gateway commands.PaymentGateway,
			locker commands.Locker,
			clk clock.Clock,
			rec *metrics.Recorder,
			cfg config.Config,
		) commands.CancellationCommands {
			return commands.NewCancellationCommands(uow, gateway, locker, clk, rec, cfg.Gateway.Currency)
		},
		commands.NewCouponCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewAvailabilityQueries,
		func(reads shared.CommandReads, clk clock.Clock, cfg config.Config) queries.PricingQueries {
			return queries.NewPricingQueries(reads, clk, cfg.Gateway.Currency)
		},
		func(store queries.BookingReadStore, clk clock.Clock, cfg config.Config) queries.BookingQueries {
			return queries.NewBookingQueries(store, clk, cfg.Gateway.Currency)
		},
		queries.NewCouponQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		func(cfg config.Config) *jwt.Service {
			return jwt.NewService(cfg.JWT.Secret)
		},
		usecase.NewTokenValidator,
	),
)
