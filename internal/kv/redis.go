package kv

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the remote Store, backed by Redis. SET NX EX gives us
// the conditional-set primitive natively, so no client-side locking is
// needed; Redis itself serializes concurrent SetIfAbsent calls.
//
// Every operation carries a bounded timeout so a slow or partitioned
// Redis cannot stall an event; callers treat the returned error as
// backend-unavailable and fall back to a MemoryStore.
type RedisStore struct {
	client *redis.Client

	// OpTimeout bounds each Redis round-trip. Zero uses a 2s default.
	OpTimeout time.Duration
}

func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	return r.client.SetNX(ctx, key, value, ttl).Result()
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if ttl <= 0 {
		ttl = 0 // no expiry
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	d, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	// Negative durations mean "no key" (-2) or "no expiry" (-1).
	if d < 0 {
		return 0, false, nil
	}
	return d, true, nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	return r.client.Del(ctx, key).Err()
}

func (r *RedisStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := r.OpTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
