package repository

import (
	"context"
	"time"

	"bookhive/internal/domain/resource"
	"bookhive/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResourceRepository struct {
	pool *pgxpool.Pool
}

func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

func (r *ResourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	var (
		name                                    string
		capacity                                int
		hourlyRateCents                         int64
		minDurationMin, maxDurationMin, leadMin int
	)

	err := r.pool.QueryRow(ctx, `
SELECT name, capacity, hourly_rate_cents, min_duration_minutes, max_duration_minutes, lead_time_minutes
FROM resources
WHERE id = $1
`, id).Scan(&name, &capacity, &hourlyRateCents, &minDurationMin, &maxDurationMin, &leadMin)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find resource", err)
	}

	rules, err := r.findRules(ctx, id)
	if err != nil {
		return nil, err
	}

	return resource.Reconstruct(
		id, name, capacity, hourlyRateCents,
		time.Duration(minDurationMin)*time.Minute,
		time.Duration(maxDurationMin)*time.Minute,
		time.Duration(leadMin)*time.Minute,
		rules,
	), nil
}

func (r *ResourceRepository) findRules(ctx context.Context, resourceID uuid.UUID) ([]resource.AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
SELECT weekday, start_minute, end_minute, available
FROM availability_rules
WHERE resource_id = $1
ORDER BY weekday, start_minute
`, resourceID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query availability rules", err)
	}
	defer rows.Close()

	var rules []resource.AvailabilityRule
	for rows.Next() {
		var (
			weekday, startMin, endMin int
			available                 bool
		)
		if err := rows.Scan(&weekday, &startMin, &endMin, &available); err != nil {
			return nil, infra.WrapRepoErr("failed to scan availability rule", err)
		}
		rules = append(rules, resource.ReconstructAvailabilityRule(time.Weekday(weekday), startMin, endMin, available))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate availability rules", err)
	}

	return rules, nil
}
