package components

import (
	"bookhive/internal/domain/pricing"
	"bookhive/internal/pkg/clock"
	"bookhive/internal/usecase/commands"
	"bookhive/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		pricing.NewEngine,
		queries.NewAvailabilityQueries,
		queries.NewBookingQueries,
		commands.NewBookingCommands,
	),
)
