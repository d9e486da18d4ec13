// Package kv provides the minimal atomic key-value contract the
// admission gates are built on, with in-memory, Redis, and MySQL
// implementations behind one interface.
package kv

import (
	"context"
	"time"
)

// Store is the backend contract shared by all implementations.
//
// SetIfAbsent must be a single atomic primitive at the backend. The
// admission gates rely on it to decide races between concurrent events;
// a separate get-then-set pair loses that race.
type Store interface {
	// SetIfAbsent stores value under key with expiry ttl only if the key
	// holds no live value. Returns true iff the store happened (key was
	// absent or previously expired).
	SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// Get returns the live value for key. ok is false when the key is
	// absent or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any existing value. A ttl of
	// zero or less stores the value without expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// TTL reports the remaining lifetime of key. ok is false when the
	// key is absent, expired, or has no expiry.
	TTL(ctx context.Context, key string) (remaining time.Duration, ok bool, err error)

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
