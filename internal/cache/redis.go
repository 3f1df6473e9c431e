// Package cache holds the Redis-backed shared state: login lockout counters and
// the health probe.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alphawing/brokerage/internal"
	"github.com/redis/go-redis/v9"
)

// Connect builds a client from a redis:// URL when one is configured,
// otherwise from host:port. No connection is made until the first command.
func Connect(cfg internal.RedisConfig) (*redis.Client, error) {
	if strings.HasPrefix(cfg.URL, "redis://") || strings.HasPrefix(cfg.URL, "rediss://") {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}

	addr := cfg.Addr
	if addr == "" {
		addr = cfg.URL
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), nil
}

// Ping reports whether Redis answers within timeout.
func Ping(ctx context.Context, client *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
