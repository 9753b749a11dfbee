package queries

import (
	"context"

	"bookhive/internal/domain/booking"
	"bookhive/internal/infra"
	"bookhive/internal/pkg/errs"

	"github.com/google/uuid"
)

type BookingReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*booking.Booking, error)
}

type BookingQueries struct {
	bookings BookingReader
}

func NewBookingQueries(bookings BookingReader) *BookingQueries {
	return &BookingQueries{bookings: bookings}
}

func (q *BookingQueries) GetByID(ctx context.Context, id uuid.UUID) (BookingView, error) {
	b, err := q.bookings.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return BookingView{}, errs.Mark(err, errs.ErrBookingNotFound)
		}
		return BookingView{}, err
	}
	return toBookingView(b), nil
}

func (q *BookingQueries) ListByUser(ctx context.Context, userID uuid.UUID) ([]BookingView, error) {
	bookings, err := q.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, toBookingView(b))
	}
	return views, nil
}

func toBookingView(b *booking.Booking) BookingView {
	return BookingView{
		ID:                 b.ID(),
		ResourceID:         b.ResourceID(),
		UserID:             b.UserID(),
		Start:              b.Period().Start(),
		End:                b.Period().End(),
		Status:             string(b.Status()),
		PriceCents:         b.Price().Cents(),
		Version:            b.Version(),
		CancellationReason: b.CancellationReason(),
		CreatedAt:          b.CreatedAt(),
		UpdatedAt:          b.UpdatedAt(),
	}
}
