package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bookhive/internal/pkg/errs"
	"bookhive/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type AvailabilityCache struct {
	client *redis.Client
}

func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

func availabilityKey(resourceID uuid.UUID, date time.Time) string {
	return "availability:" + resourceID.String() + ":" + date.Format("2006-01-02")
}

func (c *AvailabilityCache) Get(ctx context.Context, resourceID uuid.UUID, date time.Time) (*shared.AvailabilitySnapshot, error) {
	raw, err := c.client.Get(ctx, availabilityKey(resourceID, date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errs.Wrap(err, "failed to get availability snapshot")
	}

	var snapshot shared.AvailabilitySnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		// A corrupt entry is treated as a miss; the next Put overwrites it.
		return nil, nil
	}

	return &snapshot, nil
}

func (c *AvailabilityCache) Put(ctx context.Context, snapshot *shared.AvailabilitySnapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return errs.Wrap(err, "failed to marshal availability snapshot")
	}

	key := availabilityKey(snapshot.ResourceID, snapshot.Date)
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return errs.Wrap(err, "failed to store availability snapshot")
	}

	return nil
}

func (c *AvailabilityCache) Evict(ctx context.Context, resourceID uuid.UUID, date time.Time) error {
	if err := c.client.Del(ctx, availabilityKey(resourceID, date)).Err(); err != nil {
		return errs.Wrap(err, "failed to evict availability snapshot")
	}
	return nil
}
