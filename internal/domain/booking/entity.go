package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNegativePrice     = errors.New("price cannot be negative")
	ErrAlreadyTerminal   = errors.New("booking is in a terminal state")
	ErrNotConfirmable    = errors.New("only pending bookings can be confirmed")
	ErrNotCancellable    = errors.New("only pending or confirmed bookings can be cancelled")
	ErrEmptyCancelReason = errors.New("cancellation reason cannot be empty")
)

type Booking struct {
	id                 uuid.UUID
	resourceID         uuid.UUID
	userID             uuid.UUID
	period             Period
	status             Status
	price              Money
	version            int32
	cancellationReason *string
	createdAt          time.Time
	updatedAt          time.Time
}

// NewBooking creates a pending booking at version 0. Status only ever moves
// forward from here.
func NewBooking(resourceID, userID uuid.UUID, period Period, price Money) (*Booking, error) {
	if price.Cents() < 0 {
		return nil, ErrNegativePrice
	}
	return &Booking{
		id:         uuid.New(),
		resourceID: resourceID,
		userID:     userID,
		period:     period,
		status:     StatusPending,
		price:      price,
		version:    0,
	}, nil
}

func Reconstruct(
	id, resourceID, userID uuid.UUID,
	period Period,
	status Status,
	price Money,
	version int32,
	cancellationReason *string,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                 id,
		resourceID:         resourceID,
		userID:             userID,
		period:             period,
		status:             status,
		price:              price,
		version:            version,
		cancellationReason: cancellationReason,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

func (b *Booking) Confirm() error {
	if b.status != StatusPending {
		return ErrNotConfirmable
	}
	b.status = StatusConfirmed
	return nil
}

func (b *Booking) Cancel(reason string) error {
	if reason == "" {
		return ErrEmptyCancelReason
	}
	if b.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if !b.status.IsActive() {
		return ErrNotCancellable
	}
	b.status = StatusCancelled
	b.cancellationReason = &reason
	return nil
}

// IsOwnedBy checks cancellation authorization.
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool {
	return b.userID == userID
}

// MeetsCancellationNotice requires the booking start to be further away than
// the notice window.
func (b *Booking) MeetsCancellationNotice(now time.Time, notice time.Duration) bool {
	return b.period.Start().After(now.Add(notice))
}

func (b *Booking) ID() uuid.UUID               { return b.id }
func (b *Booking) ResourceID() uuid.UUID       { return b.resourceID }
func (b *Booking) UserID() uuid.UUID           { return b.userID }
func (b *Booking) Period() Period              { return b.period }
func (b *Booking) Status() Status              { return b.status }
func (b *Booking) Price() Money                { return b.price }
func (b *Booking) Version() int32              { return b.version }
func (b *Booking) CancellationReason() *string { return b.cancellationReason }
func (b *Booking) CreatedAt() time.Time        { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time        { return b.updatedAt }
