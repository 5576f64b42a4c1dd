package bootstrap

import (
	"villa-booking/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	InfraModule,
	components.UseCaseModule,
	JobsModule,
	components.HandlerModule,
)
