package components

import (
	"bookhive/internal/infra/redisrepo"
	"bookhive/internal/infra/repository"
	"bookhive/internal/usecase/commands"
	"bookhive/internal/usecase/queries"
	"bookhive/internal/usecase/shared"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repository.NewBookingRepository,
			fx.As(new(commands.BookingRepository)),
			fx.As(new(queries.ActiveBookingReader)),
			fx.As(new(queries.BookingReader)),
		),
		fx.Annotate(
			repository.NewPaymentRepository,
			fx.As(new(commands.PaymentRepository)),
		),
		fx.Annotate(
			repository.NewResourceRepository,
			fx.As(new(commands.ResourceRepository)),
			fx.As(new(queries.ResourceReader)),
		),
		fx.Annotate(
			repository.NewUserRepository,
			fx.As(new(commands.UserRepository)),
		),
		fx.Annotate(
			repository.NewNotificationRepository,
			fx.As(new(shared.Notifier)),
		),
		fx.Annotate(
			redisrepo.NewRedisLock,
			fx.As(new(shared.DistributedLock)),
		),
		fx.Annotate(
			redisrepo.NewAvailabilityCache,
			fx.As(new(shared.AvailabilityCache)),
		),
	),
)
