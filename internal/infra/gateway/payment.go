package gateway

import (
	"context"
	"errors"
	"log/slog"

	"bookhive/internal/domain/payment"
	"bookhive/internal/pkg/config"
	"bookhive/internal/pkg/errs"
	"bookhive/internal/usecase/commands"

	"github.com/sony/gobreaker"
)

// MethodHandler performs charges for one payment method. A handler reports
// async settlement by returning a result with status Processing; only
// transport-level failures come back as errors.
type MethodHandler interface {
	Charge(ctx context.Context, req commands.ChargeRequest) (commands.ChargeResult, error)
	Refund(ctx context.Context, req commands.RefundRequest) error
}

// PaymentGateway dispatches to per-method handlers behind a shared circuit
// breaker. Provider outages surface as errs.ErrPaymentUnavailable so the
// caller's retry policy can distinguish them from declines.
type PaymentGateway struct {
	handlers map[payment.Method]MethodHandler
	breaker  *gobreaker.CircuitBreaker
	cfg      config.PaymentConfig
}

func NewPaymentGateway(cfg config.PaymentConfig, handlers map[payment.Method]MethodHandler) *PaymentGateway {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "payment-provider",
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("payment breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &PaymentGateway{handlers: handlers, breaker: breaker, cfg: cfg}
}

func (g *PaymentGateway) Charge(ctx context.Context, req commands.ChargeRequest) (commands.ChargeResult, error) {
	handler, ok := g.handlers[req.Method]
	if !ok {
		return commands.ChargeResult{}, errs.Mark(errs.New("no handler for method "+req.Method.String()), errs.ErrPaymentDeclined)
	}

	// A decline is an answer from a healthy provider, not a provider
	// failure; it must not trip the breaker.
	var declined error
	result, err := g.breaker.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()

		res, chargeErr := handler.Charge(callCtx, req)
		if chargeErr != nil {
			if errors.Is(chargeErr, errs.ErrPaymentDeclined) {
				declined = chargeErr
				return commands.ChargeResult{}, nil
			}
			return commands.ChargeResult{}, chargeErr
		}
		return res, nil
	})

	switch {
	case declined != nil:
		return commands.ChargeResult{}, declined
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return commands.ChargeResult{}, errs.Mark(err, errs.ErrPaymentUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		// Outcome unknown; reconciliation settles it.
		return commands.ChargeResult{}, errs.Mark(err, errs.ErrPaymentUnavailable)
	case err != nil:
		return commands.ChargeResult{}, errs.Mark(err, errs.ErrPaymentUnavailable)
	}

	return result.(commands.ChargeResult), nil
}

func (g *PaymentGateway) Refund(ctx context.Context, req commands.RefundRequest) error {
	handler, ok := g.handlers[req.Method]
	if !ok {
		return errs.New("no handler for method " + req.Method.String())
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	if err := handler.Refund(callCtx, req); err != nil {
		return errs.Mark(err, errs.ErrPaymentUnavailable)
	}
	return nil
}
