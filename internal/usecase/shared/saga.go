package shared

import (
	"context"
	"log/slog"

	"bookhive/internal/pkg/errs"
)

// SagaStep pairs a forward action with the compensation that undoes it.
// Compensate may be nil for steps with nothing to roll back.
type SagaStep struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga executes steps in order and, on failure, compensates the completed
// ones in reverse. It keeps no timers or persistence; the caller owns the
// overall deadline through ctx.
type Saga struct {
	name      string
	completed []SagaStep
}

func NewSaga(name string) *Saga {
	return &Saga{name: name}
}

// Execute runs one step and records it for compensation on success.
func (s *Saga) Execute(ctx context.Context, step SagaStep) error {
	if err := step.Run(ctx); err != nil {
		return errs.Wrap(err, "saga step "+step.Name+" failed")
	}
	s.completed = append(s.completed, step)
	return nil
}

// Compensate undoes completed steps in reverse order. It keeps going past
// individual failures so every step gets its chance to roll back, and marks
// the combined error with ErrCompensationFailed for reconciliation.
func (s *Saga) Compensate(ctx context.Context) error {
	var failed error
	for i := len(s.completed) - 1; i >= 0; i-- {
		step := s.completed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "saga compensation failed",
				"saga", s.name, "step", step.Name, "error", err)
			if failed == nil {
				failed = err
			}
		}
	}
	s.completed = nil

	if failed != nil {
		return errs.Mark(failed, errs.ErrCompensationFailed)
	}
	return nil
}
