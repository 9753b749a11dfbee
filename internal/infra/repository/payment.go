package repository

import (
	"context"
	"time"

	"bookhive/internal/domain/payment"
	"bookhive/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.pool.Exec(ctx, insertPaymentSQL,
		p.ID(), p.BookingID(), p.AmountCents(),
		string(p.Method()), string(p.Status()), p.ExternalRef(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert payment", err)
	}
	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE payments
SET status = $2, external_ref = $3, updated_at = now()
WHERE id = $1
`, p.ID(), string(p.Status()), p.ExternalRef())
	if err != nil {
		return infra.WrapRepoErr("failed to update payment", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("payment not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *PaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*payment.Payment, error) {
	var (
		id                   uuid.UUID
		amountCents          int64
		method, status       string
		externalRef          *string
		createdAt, updatedAt time.Time
	)

	err := r.pool.QueryRow(ctx, `
SELECT id, amount_cents, method, status, external_ref, created_at, updated_at
FROM payments
WHERE booking_id = $1
ORDER BY created_at DESC
LIMIT 1
`, bookingID).Scan(&id, &amountCents, &method, &status, &externalRef, &createdAt, &updatedAt)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find payment", err)
	}

	return payment.Reconstruct(
		id, bookingID, amountCents,
		payment.Method(method), payment.Status(status),
		externalRef,
		createdAt, updatedAt,
	), nil
}
