package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisBreakerDuration = 30 * time.Second
	redisPingTimeout     = 2 * time.Second
)

var errMissingRedisAddr = errors.New("analysis limiter: missing redis address")

// SettingsProvider supplies the current settings snapshot.
type SettingsProvider func() SettingsConfig

// RedisClientFactory constructs a Redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

type redisTarget struct {
	addr     string
	password string
	prefix   string
	db       int
}

func targetFromSettings(cfg SettingsConfig) redisTarget {
	target := redisTarget{
		addr:     strings.TrimSpace(cfg.RedisAddr),
		password: strings.TrimSpace(cfg.RedisPassword),
		prefix:   strings.TrimSpace(cfg.RedisPrefix),
		db:       cfg.RedisDB,
	}
	if target.db < 0 {
		target.db = 0
	}
	return target
}

// Manager enforces per-user analysis bursts. With Redis enabled the counters are
// shared between replicas; while Redis is unreachable each replica counts alone.
type Manager struct {
	provider       SettingsProvider
	nowFn          func() time.Time
	memory         *MemoryLimiter
	newRedisClient RedisClientFactory
	breaker        *breaker

	mu     sync.Mutex
	redis  *RedisLimiter
	target redisTarget
}

// NewManager constructs a Manager with default dependencies when nil.
func NewManager(provider SettingsProvider, nowFn func() time.Time, newRedisClient RedisClientFactory) *Manager {
	if provider == nil {
		provider = StaticSettings(defaultSettings())
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if newRedisClient == nil {
		newRedisClient = redis.NewClient
	}
	return &Manager{
		provider:       provider,
		nowFn:          nowFn,
		memory:         NewMemoryLimiter(),
		newRedisClient: newRedisClient,
		breaker:        &breaker{cooldown: redisBreakerDuration},
	}
}

// DefaultLimit returns the fallback requests per window for users whose plan sets none.
func (m *Manager) DefaultLimit() int {
	if m == nil {
		return 0
	}
	return m.provider().Limit
}

// Window returns the configured window length.
func (m *Manager) Window() time.Duration {
	if m == nil {
		return 0
	}
	return m.provider().Window
}

// Close releases the Redis connection, if any.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redis == nil {
		return nil
	}
	errClose := m.redis.client.Close()
	m.redis = nil
	return errClose
}

// Allow counts one analysis request against key.
func (m *Manager) Allow(ctx context.Context, key string, limit int) (Result, error) {
	if m == nil || limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	now := m.nowFn()
	cfg := m.provider()

	if cfg.RedisEnabled && !m.breaker.open(now) {
		result, errRedis := m.allowRedis(ctx, key, limit, now, cfg)
		if errRedis == nil {
			return result, nil
		}
		m.breaker.trip(errRedis, now)
	}
	return m.memory.Allow(ctx, key, limit, cfg.Window, now)
}

func (m *Manager) allowRedis(ctx context.Context, key string, limit int, now time.Time, cfg SettingsConfig) (Result, error) {
	limiter, errConnect := m.connect(ctx, targetFromSettings(cfg))
	if errConnect != nil {
		return Result{}, errConnect
	}
	return limiter.Allow(ctx, key, limit, cfg.Window, now)
}

// connect returns the limiter for target, redialing when the target changed.
func (m *Manager) connect(ctx context.Context, target redisTarget) (*RedisLimiter, error) {
	if target.addr == "" {
		return nil, errMissingRedisAddr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.redis != nil && m.target == target {
		return m.redis, nil
	}
	if m.redis != nil {
		_ = m.redis.client.Close()
		m.redis = nil
	}

	client := m.newRedisClient(&redis.Options{
		Addr:     target.addr,
		Password: target.password,
		DB:       target.db,
	})
	ctxPing, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if errPing := client.Ping(ctxPing).Err(); errPing != nil {
		_ = client.Close()
		return nil, errPing
	}
	m.redis = NewRedisLimiter(client, target.prefix)
	m.target = target
	return m.redis, nil
}
