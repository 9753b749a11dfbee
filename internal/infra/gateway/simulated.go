package gateway

import (
	"context"

	"bookhive/internal/domain/payment"
	"bookhive/internal/usecase/commands"

	"github.com/google/uuid"
)

// SimulatedHandler approves every charge and refund. It backs local
// development and demo environments where no real provider is wired.
type SimulatedHandler struct {
	prefix string
}

func NewSimulatedHandler(method payment.Method) *SimulatedHandler {
	return &SimulatedHandler{prefix: "sim-" + method.String() + "-"}
}

func (h *SimulatedHandler) Charge(_ context.Context, _ commands.ChargeRequest) (commands.ChargeResult, error) {
	return commands.ChargeResult{
		Status:      commands.ChargeCompleted,
		ExternalRef: h.prefix + uuid.NewString(),
	}, nil
}

func (h *SimulatedHandler) Refund(_ context.Context, _ commands.RefundRequest) error {
	return nil
}

// SimulatedHandlers registers a simulated handler for every supported method.
func SimulatedHandlers() map[payment.Method]MethodHandler {
	return map[payment.Method]MethodHandler{
		payment.MethodCard:   NewSimulatedHandler(payment.MethodCard),
		payment.MethodPayPal: NewSimulatedHandler(payment.MethodPayPal),
		payment.MethodWallet: NewSimulatedHandler(payment.MethodWallet),
	}
}
