package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockoutPrefix = "auth:login_failures:"

// LoginLimiter counts failed logins per key in Redis. A key is locked once it
// reaches maxAttempts failures; the counter expires window after the first one.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginLimiter{client: client, maxAttempts: int64(maxAttempts), window: window}
}

func (l *LoginLimiter) Locked(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, lockoutKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= l.maxAttempts, nil
}

// RecordFailure bumps the counter and starts the window on the first failure.
// Incr followed by Expire keeps this working on Redis releases without EXPIRE NX.
func (l *LoginLimiter) RecordFailure(ctx context.Context, key string) error {
	redisKey := lockoutKey(key)
	n, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return l.client.Expire(ctx, redisKey, l.window).Err()
	}
	return nil
}

func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, lockoutKey(key)).Err()
}

func lockoutKey(key string) string {
	return lockoutPrefix + key
}
