package repository

import (
	"context"
	"encoding/json"

	"bookhive/internal/infra"
	"bookhive/internal/pkg/errs"
	"bookhive/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Enqueue(ctx context.Context, job shared.NotificationJob) error {
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return errs.Wrap(err, "failed to marshal notification payload")
	}

	_, err = r.pool.Exec(ctx, `
INSERT INTO notification_jobs (id, booking_id, user_id, kind, payload, status, created_at)
VALUES ($1, $2, $3, $4, $5, 'pending', now())
`, uuid.New(), job.BookingID, job.UserID, string(job.Kind), payload)
	if err != nil {
		return infra.WrapRepoErr("failed to enqueue notification", err)
	}
	return nil
}
