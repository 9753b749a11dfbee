package repository

import (
	"context"
	"time"

	"bookhive/internal/domain/booking"
	"bookhive/internal/domain/payment"
	"bookhive/internal/infra"
	"bookhive/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const insertBookingSQL = `
INSERT INTO bookings (id, resource_id, user_id, start_time, end_time, status, price_cents, version, cancellation_reason, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
`

const insertPaymentSQL = `
INSERT INTO payments (id, booking_id, amount_cents, method, status, external_ref, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
`

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	_, err := r.pool.Exec(ctx, insertBookingSQL,
		b.ID(), b.ResourceID(), b.UserID(),
		b.Period().Start(), b.Period().End(),
		string(b.Status()), b.Price().Cents(), b.Version(), b.CancellationReason(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert booking", err)
	}
	return nil
}

const createRetries = 3

// CreateWithPayment persists the booking and its payment row atomically, so a
// crash between the two cannot leave a booking without a payment record.
// Serialization failures under concurrent writers are retried.
func (r *BookingRepository) CreateWithPayment(ctx context.Context, b *booking.Booking, p *payment.Payment) error {
	err := db.RunInTxWithRetry(ctx, r.pool, createRetries, func(tx db.DBTX) error {
		if _, err := tx.Exec(ctx, insertBookingSQL,
			b.ID(), b.ResourceID(), b.UserID(),
			b.Period().Start(), b.Period().End(),
			string(b.Status()), b.Price().Cents(), b.Version(), b.CancellationReason(),
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertPaymentSQL,
			p.ID(), p.BookingID(), p.AmountCents(),
			string(p.Method()), string(p.Status()), p.ExternalRef(),
		); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return infra.WrapRepoErr("failed to insert booking with payment", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, resource_id, user_id, start_time, end_time, status, price_cents, version, cancellation_reason, created_at, updated_at
FROM bookings
WHERE id = $1
`, id)

	b, err := scanBooking(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}
	return b, nil
}

// FindActiveInRange returns pending and confirmed bookings of a resource that
// overlap the half-open interval [from, to).
func (r *BookingRepository) FindActiveInRange(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*booking.Booking, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, resource_id, user_id, start_time, end_time, status, price_cents, version, cancellation_reason, created_at, updated_at
FROM bookings
WHERE resource_id = $1
  AND status IN ('pending', 'confirmed')
  AND start_time < $3
  AND end_time > $2
ORDER BY start_time
`, resourceID, from, to)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query active bookings", err)
	}
	defer rows.Close()

	var bookings []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking row", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking rows", err)
	}

	return bookings, nil
}

// CountActiveNear counts active bookings of a resource whose start time lies
// within [start-window, start+window]. Only start proximity matters; a long
// booking reaching into the window from hours away is not demand.
func (r *BookingRepository) CountActiveNear(ctx context.Context, resourceID uuid.UUID, start time.Time, window time.Duration) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
SELECT count(*)
FROM bookings
WHERE resource_id = $1
  AND status IN ('pending', 'confirmed')
  AND start_time BETWEEN $2 AND $3
`, resourceID, start.Add(-window), start.Add(window)).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count nearby bookings", err)
	}
	return count, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*booking.Booking, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, resource_id, user_id, start_time, end_time, status, price_cents, version, cancellation_reason, created_at, updated_at
FROM bookings
WHERE user_id = $1
ORDER BY start_time DESC
`, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query user bookings", err)
	}
	defer rows.Close()

	var bookings []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking row", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking rows", err)
	}

	return bookings, nil
}

// UpdateStatusWithVersion moves the booking to status only when the stored
// version still matches expectedVersion, bumping the version on success. A
// stale version surfaces as KindVersionMismatch so callers can re-read and
// retry.
func (r *BookingRepository) UpdateStatusWithVersion(
	ctx context.Context,
	id uuid.UUID,
	status booking.Status,
	cancellationReason *string,
	expectedVersion int32,
) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE bookings
SET status = $2,
    cancellation_reason = COALESCE($3, cancellation_reason),
    version = version + 1,
    updated_at = now()
WHERE id = $1 AND version = $4
`, id, string(status), cancellationReason, expectedVersion)
	if err != nil {
		return infra.WrapRepoErr("failed to update booking status", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
			return infra.WrapRepoErr("failed to check booking existence", err)
		}
		if !exists {
			return infra.WrapRepoErr("booking not found", pgx.ErrNoRows, infra.KindNotFound)
		}
		return infra.WrapRepoErr("booking version is stale", nil, infra.KindVersionMismatch)
	}

	return nil
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		id, resourceID, userID uuid.UUID
		start, end             time.Time
		status                 string
		priceCents             int64
		version                int32
		cancellationReason     *string
		createdAt, updatedAt   time.Time
	)

	if err := row.Scan(&id, &resourceID, &userID, &start, &end, &status, &priceCents, &version, &cancellationReason, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	period, err := booking.NewPeriod(start, end)
	if err != nil {
		return nil, err
	}

	return booking.Reconstruct(
		id, resourceID, userID,
		period,
		booking.Status(status),
		booking.NewMoney(priceCents),
		version,
		cancellationReason,
		createdAt, updatedAt,
	), nil
}
