package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a distributed Locker backed by Redis SETNX, grounded on the
// claim-then-release pattern used for expired-checkpoint reclaiming: a
// client acquires by SetNX'ing an owner token with the lock's TTL. Release
// mirrors the read-confirmed lock lifecycle of the in-memory adapter and
// simply clears the key; it does not need to compare owner tokens because
// callers only ever release a key they just read.
type Redis struct {
	client      redis.Cmdable
	keyPrefix   string
	pollEvery   time.Duration
	waitTimeout time.Duration
}

// NewRedis constructs a Redis locker. waitTimeout <= 0 defaults to 5s.
func NewRedis(client redis.Cmdable, keyPrefix string, waitTimeout time.Duration) *Redis {
	if waitTimeout <= 0 {
		waitTimeout = 5 * time.Second
	}
	return &Redis{
		client:      client,
		keyPrefix:   keyPrefix,
		pollEvery:   25 * time.Millisecond,
		waitTimeout: waitTimeout,
	}
}

func (r *Redis) lockKey(key string) string {
	return fmt.Sprintf("%smemlock:%s", r.keyPrefix, key)
}

func (r *Redis) Acquire(ctx context.Context, key, ownerTaskID string, ttl time.Duration) error {
	lockKey := r.lockKey(key)
	deadline := time.Now().Add(r.waitTimeout)
	for {
		ok, err := r.client.SetNX(ctx, lockKey, ownerTaskID, ttl).Result()
		if err != nil {
			return fmt.Errorf("lock: redis setnx %s: %w", lockKey, err)
		}
		if ok {
			return nil
		}

		// Re-entrant: the current holder may retry its own key within TTL.
		held, err := r.client.Get(ctx, lockKey).Result()
		if err == nil && held == ownerTaskID {
			r.client.Expire(ctx, lockKey, ttl)
			return nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("lock: redis get %s: %w", lockKey, err)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("lock: timed out acquiring %s", lockKey)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.pollEvery):
		}
	}
}

func (r *Redis) Release(ctx context.Context, key string) {
	r.client.Del(ctx, r.lockKey(key))
}
