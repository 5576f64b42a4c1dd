package bootstrap

import (
	"context"
	"log/slog"

	"villa-booking/internal/infra/events"
	"villa-booking/internal/infra/gateway"
	"villa-booking/internal/infra/lock"
	"villa-booking/internal/infra/mailer"
	"villa-booking/internal/jobs"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/metrics"
	"villa-booking/internal/usecase/commands"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

var InfraModule = fx.Module("infra",
	fx.Provide(
		NewRegistry,
		func(reg *prometheus.Registry) *metrics.Recorder {
			return metrics.NewRecorder(reg)
		},
		fx.Annotate(
			func(cfg config.Config) *gateway.RazorpayClient {
				return gateway.NewRazorpayClient(cfg.Gateway)
			},
			fx.As(new(commands.PaymentGateway)),
		),
		NewLocker,
		NewMailer,
		NewPublisher,
	),
)

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewLocker(lc fx.Lifecycle, cfg config.Config) commands.Locker {
	if cfg.Lock.Backend != config.LockBackendRedis {
		return lock.NewLocalLocker(cfg.Lock.WaitTimeout)
	}
	client := lock.NewRedisClient(cfg.Lock)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	slog.Info("using redis locks", "addr", cfg.Lock.RedisAddr)
	return lock.NewRedisLocker(client, cfg.Lock.TTL, cfg.Lock.WaitTimeout)
}

func NewMailer(cfg config.Config) jobs.Mailer {
	if cfg.Mail.SendGridAPIKey == "" {
		slog.Warn("SENDGRID_API_KEY not set, emails are logged only")
		return mailer.NewLogMailer()
	}
	return mailer.NewSendGridMailer(cfg.Mail)
}

func NewPublisher(lc fx.Lifecycle, cfg config.Config) jobs.Publisher {
	if len(cfg.Events.Brokers) == 0 {
		slog.Warn("KAFKA_BROKERS not set, booking events are not published")
		return events.NoopPublisher{}
	}
	p := events.NewKafkaPublisher(cfg.Events)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return p.Close()
		},
	})
	return p
}
