package redisrepo

import (
	"context"
	"time"

	"bookhive/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds the caller's token,
// so an expired holder cannot release a lock re-acquired by someone else.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

// Acquire sets the key if absent with the given TTL and returns an opaque
// ownership token. When the key is already held it fails with
// errs.ErrLockNotAcquired without blocking.
func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", errs.Wrap(err, "failed to acquire lock")
	}
	if !ok {
		return "", errs.Mark(errs.New("lock held by another owner: "+key), errs.ErrLockNotAcquired)
	}

	return token, nil
}

// Release deletes the key if the token still matches. It returns false when
// the lock had already expired or was taken over by another owner.
func (l *RedisLock) Release(ctx context.Context, key, token string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		return false, errs.Wrap(err, "failed to release lock")
	}
	return deleted == 1, nil
}
