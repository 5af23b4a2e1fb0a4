package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"institute-reviews/cmd/internal/logger"
)

// RedisLimiter shares fixed-window counters between API instances.
// The first hit of a window sets the key TTL; later hits only INCR.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, w time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: w}
}

// NewRedisClient connects to addr and pings it.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := rl.prefix + key
	count, err := rl.client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, k, rl.window).Err(); err != nil {
			return false, 0, err
		}
	}
	if count <= int64(rl.limit) {
		return true, 0, nil
	}

	ttl, err := rl.client.TTL(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl < 0 {
		// key lost its TTL; restore it so the caller is not locked out forever
		if err := rl.client.Expire(ctx, k, rl.window).Err(); err != nil {
			logger.WarnWithFields("rate limit ttl restore failed", logger.Fields{
				"key":   k,
				"error": err.Error(),
			})
		}
		ttl = rl.window
	}
	return false, ttl, nil
}
