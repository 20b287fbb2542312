package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares analysis counters across replicas. Each window is its own
// key, prefix:key:index, expiring one window after it closes.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter constructs a RedisLimiter.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: strings.Trim(strings.TrimSpace(prefix), ":")}
}

// Allow increments the counter for the window containing now.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	if limit <= 0 || key == "" || l == nil || l.client == nil {
		return Result{Allowed: true}, nil
	}
	if window <= 0 {
		window = time.Second
	}
	index, reset := windowBounds(now, window)
	windowKey := l.windowKey(key, index)

	var incr *redis.IntCmd
	if _, errPipe := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		pipe.ExpireAt(ctx, windowKey, reset.Add(window))
		return nil
	}); errPipe != nil {
		return Result{}, fmt.Errorf("rate limit redis: %w", errPipe)
	}

	remaining := limit - int(incr.Val())
	if remaining < 0 {
		return Result{Allowed: false, Reset: reset}, nil
	}
	return Result{Allowed: true, Remaining: remaining, Reset: reset}, nil
}

func (l *RedisLimiter) windowKey(key string, index int64) string {
	suffix := key + ":" + strconv.FormatInt(index, 10)
	if l.prefix == "" {
		return suffix
	}
	return l.prefix + ":" + suffix
}
