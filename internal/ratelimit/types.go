package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time // End of the window the request was counted in.
}

// Limiter counts requests per key in fixed windows of the given length.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error)
}

// Scope indicates which dimension the rate limit applies to.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeUser
)

// Decision describes the resolved analysis limit for one user.
type Decision struct {
	Limit  int
	Scope  Scope
	Tier   string // Plan tier the limit was resolved for.
	Source string // "plan" or "default".
}

// windowBounds numbers fixed windows from the Unix epoch and returns the
// index holding now together with the instant that window ends.
func windowBounds(now time.Time, window time.Duration) (int64, time.Time) {
	if window <= 0 {
		window = time.Second
	}
	index := now.UnixNano() / int64(window)
	return index, time.Unix(0, (index+1)*int64(window)).UTC()
}

var (
	_ Limiter = (*MemoryLimiter)(nil)
	_ Limiter = (*RedisLimiter)(nil)
)
