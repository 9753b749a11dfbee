package components

import (
	"bookhive/internal/infra/analytics"
	"bookhive/internal/infra/gateway"
	"bookhive/internal/pkg/config"
	"bookhive/internal/usecase/commands"

	"go.uber.org/fx"
)

var GatewayModule = fx.Module("gateway",
	fx.Provide(
		fx.Annotate(
			newPaymentGateway,
			fx.As(new(commands.PaymentGateway)),
		),
		fx.Annotate(
			analytics.NewPrometheusRecorder,
			fx.As(new(commands.AnalyticsRecorder)),
		),
	),
)

func newPaymentGateway(cfg config.Config) *gateway.PaymentGateway {
	return gateway.NewPaymentGateway(cfg.Payment, gateway.SimulatedHandlers())
}
