package repository

import (
	"context"
	"time"

	"bookhive/internal/domain/user"
	"bookhive/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var (
		name, email string
		createdAt   time.Time
	)

	err := r.pool.QueryRow(ctx, `
SELECT name, email, created_at
FROM users
WHERE id = $1
`, id).Scan(&name, &email, &createdAt)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find user", err)
	}

	return user.Reconstruct(id, name, email, createdAt), nil
}

// CompletedBookingCount feeds the loyalty discount.
func (r *UserRepository) CompletedBookingCount(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
SELECT count(*)
FROM bookings
WHERE user_id = $1 AND status = 'completed'
`, id).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count completed bookings", err)
	}
	return count, nil
}
