package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 25 * time.Hour

// Lock serializes cron cycles across worker replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lease. The TTL is the safety net: a worker that dies
// mid-cycle stops blocking the schedule once the lease expires.
type RedisLock struct {
	store redisStore
	key   string
	ttl   time.Duration
	lease string
}

// NewRedisLock constructs a Redis-backed lock on the given key.
func NewRedisLock(store redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

// Acquire claims the key for this instance for the configured TTL. The lease
// value identifies the holder so Release can tell its own lock apart from a
// successor's.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	lease := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, lease, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.lease = lease
	}
	return ok, nil
}

// Release deletes the key only while this instance still holds the lease. A
// lock that expired and was re-taken by another worker is left untouched.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.lease == "" {
		return nil
	}

	value, err := l.store.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("read lock lease: %w", err)
	case value != l.lease:
		return nil
	}

	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.lease = ""
	return nil
}
