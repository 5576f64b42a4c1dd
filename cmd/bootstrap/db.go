package bootstrap

import (
	"context"
	"log/slog"

	"villa-booking/internal/infra/db"
	"villa-booking/internal/infra/memstore"
	"villa-booking/internal/infra/readstore"
	"villa-booking/internal/infra/repository"
	"villa-booking/internal/infra/uow"
	"villa-booking/internal/jobs"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var DBModule = fx.Module("db",
	fx.Provide(
		NewPersistence,
		func(u shared.UnitOfWork) shared.CommandReads {
			return u.CommandReads()
		},
	),
)

// Persistence is every storage port, backed by one driver.
type Persistence struct {
	fx.Out

	UoW      shared.UnitOfWork
	Bookings queries.BookingReadStore
	Coupons  queries.CouponReadStore
	Outbox   jobs.Store
}

func NewPersistence(lc fx.Lifecycle, cfg config.Config) (Persistence, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		slog.Warn("using in-memory store, data is lost on restart")
		s := memstore.New()
		return Persistence{
			UoW:      s,
			Bookings: s.BookingReadStore(),
			Coupons:  s.CouponReadStore(),
			Outbox:   s,
		}, nil
	}

	pool, err := NewDB(lc, cfg)
	if err != nil {
		return Persistence{}, err
	}
	u := uow.NewPostgresUoW(pool)
	return Persistence{
		UoW:      u,
		Bookings: readstore.NewBookingReadStore(u.DB()),
		Coupons:  readstore.NewCouponReadStore(u.DB()),
		Outbox:   repository.NewNotificationRepository(u.DB()),
	}, nil
}

func NewDB(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	pool, cleanup, err := db.Connect(context.Background(), cfg.DB)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return pool, nil
}
