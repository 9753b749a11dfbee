package commands

import (
	"context"
	"time"

	"bookhive/internal/domain/booking"
	"bookhive/internal/domain/payment"
	"bookhive/internal/domain/resource"
	"bookhive/internal/domain/user"

	"github.com/google/uuid"
)

type BookingRepository interface {
	CreateWithPayment(ctx context.Context, b *booking.Booking, p *payment.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	// CountActiveNear counts active bookings whose start lies within
	// [start-window, start+window]; overlap with the requested period is
	// irrelevant here, only start proximity drives the demand tier.
	CountActiveNear(ctx context.Context, resourceID uuid.UUID, start time.Time, window time.Duration) (int, error)
	UpdateStatusWithVersion(ctx context.Context, id uuid.UUID, status booking.Status, cancellationReason *string, expectedVersion int32) error
}

type PaymentRepository interface {
	Update(ctx context.Context, p *payment.Payment) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*payment.Payment, error)
}

type ResourceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	CompletedBookingCount(ctx context.Context, id uuid.UUID) (int, error)
}

type ChargeRequest struct {
	PaymentID   uuid.UUID
	BookingID   uuid.UUID
	AmountCents int64
	Method      payment.Method
}

type RefundRequest struct {
	PaymentID   uuid.UUID
	ExternalRef string
	AmountCents int64
	Method      payment.Method
}

// ChargeStatus is the provider's answer to a successful charge call.
// Processing means the provider accepted the charge but settles it
// asynchronously; the caller must not re-submit.
type ChargeStatus string

const (
	ChargeCompleted  ChargeStatus = "completed"
	ChargeProcessing ChargeStatus = "processing"
)

type ChargeResult struct {
	Status      ChargeStatus
	ExternalRef string
}

// PaymentGateway talks to the external payment provider. Charge returns
// errs.ErrPaymentDeclined for permanent rejections and
// errs.ErrPaymentUnavailable when the provider cannot be reached; the caller
// retries only the latter. An accepted-but-settling charge comes back as a
// ChargeResult with status Processing, not as an error.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) error
}

// AnalyticsRecorder counts business events for operational dashboards.
type AnalyticsRecorder interface {
	BookingCreated(outcome string)
	BookingCancelled()
	PaymentFailed(reason string)
}
