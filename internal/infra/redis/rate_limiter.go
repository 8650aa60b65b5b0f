package redis

import (
	"context"
	"time"

	"adtopia/internal/domain/ports/adapter"
)

var _ adapter.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a fixed-window counter.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	} else if count > int64(limit) {
		// a lost EXPIRE on the first hit would otherwise block the key forever
		if ttl, err := r.client.TTL(ctx, key); err == nil && ttl < 0 {
			if err := r.client.Expire(ctx, key, window); err != nil {
				return false, err
			}
		}
	}

	return count <= int64(limit), nil
}
