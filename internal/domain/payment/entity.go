package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNegativeAmount   = errors.New("payment amount cannot be negative")
	ErrInvalidMethod    = errors.New("invalid payment method")
	ErrNotSettleable    = errors.New("payment cannot be settled from its current status")
	ErrNotRefundable    = errors.New("only completed payments can be refunded")
	ErrMissingReference = errors.New("external reference is required")
)

type Payment struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	amountCents int64
	method      Method
	status      Status
	externalRef *string
	createdAt   time.Time
	updatedAt   time.Time
}

func NewPayment(bookingID uuid.UUID, amountCents int64, method Method) (*Payment, error) {
	if amountCents < 0 {
		return nil, ErrNegativeAmount
	}
	if !method.IsValid() {
		return nil, ErrInvalidMethod
	}
	return &Payment{
		id:          uuid.New(),
		bookingID:   bookingID,
		amountCents: amountCents,
		method:      method,
		status:      StatusPending,
	}, nil
}

func Reconstruct(
	id, bookingID uuid.UUID,
	amountCents int64,
	method Method,
	status Status,
	externalRef *string,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:          id,
		bookingID:   bookingID,
		amountCents: amountCents,
		method:      method,
		status:      status,
		externalRef: externalRef,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (p *Payment) MarkProcessing() error {
	if p.status != StatusPending {
		return ErrNotSettleable
	}
	p.status = StatusProcessing
	return nil
}

func (p *Payment) MarkCompleted(externalRef string) error {
	if externalRef == "" {
		return ErrMissingReference
	}
	if p.status != StatusPending && p.status != StatusProcessing {
		return ErrNotSettleable
	}
	p.status = StatusCompleted
	p.externalRef = &externalRef
	return nil
}

func (p *Payment) MarkFailed() error {
	if p.status != StatusPending && p.status != StatusProcessing {
		return ErrNotSettleable
	}
	p.status = StatusFailed
	return nil
}

func (p *Payment) MarkRefunded() error {
	if p.status != StatusCompleted {
		return ErrNotRefundable
	}
	p.status = StatusRefunded
	return nil
}

func (p *Payment) ID() uuid.UUID          { return p.id }
func (p *Payment) BookingID() uuid.UUID   { return p.bookingID }
func (p *Payment) AmountCents() int64     { return p.amountCents }
func (p *Payment) Method() Method         { return p.method }
func (p *Payment) Status() Status         { return p.status }
func (p *Payment) ExternalRef() *string   { return p.externalRef }
func (p *Payment) CreatedAt() time.Time   { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time   { return p.updatedAt }
