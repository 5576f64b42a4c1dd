package bootstrap

import (
	"context"

	"villa-booking/internal/jobs"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/metrics"
	"villa-booking/internal/scheduler"
	"villa-booking/internal/usecase/queries"

	"go.uber.org/fx"
)

var JobsModule = fx.Module("jobs",
	fx.Provide(
		fx.Annotate(
			func(
				store jobs.Store,
				bookings queries.BookingQueries,
				m jobs.Mailer,
				p jobs.Publisher,
				clk clock.Clock,
				rec *metrics.Recorder,
				cfg config.Config,
			) *jobs.Dispatcher {
				return jobs.NewDispatcher(store, bookings, m, p, clk, rec, cfg.Scheduler)
			},
			fx.As(new(scheduler.Runner)),
		),
		func(cfg config.Config, runner scheduler.Runner) (*scheduler.Scheduler, error) {
			return scheduler.NewScheduler(cfg.Scheduler, runner)
		},
	),
	fx.Invoke(startScheduler),
)

func startScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop(ctx)
		},
	})
}
