package components

import (
	"bookhive/internal/handler"
	"bookhive/internal/handler/api"
	"bookhive/internal/usecase/commands"
	"bookhive/internal/usecase/queries"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		func(c *commands.BookingCommands) api.BookingCommands { return c },
		func(q *queries.BookingQueries) api.BookingQueries { return q },
		func(q *queries.AvailabilityQueries) api.AvailabilityChecker { return q },
		api.NewBookingHandler,
		api.NewAvailabilityHandler,
	),
	fx.Invoke(handler.NewRouter),
)
