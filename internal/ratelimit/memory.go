package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how many checks run between expired entry sweeps.
const sweepEvery = 1024

type memoryCounter struct {
	index int64
	count int
	reset time.Time
}

// MemoryLimiter counts analysis requests in process. It backs single-replica
// deployments and covers for Redis while the breaker is open.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	checks   int
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{counters: make(map[string]*memoryCounter)}
}

// Allow counts one request against key in the window containing now.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	index, reset := windowBounds(now, window)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.checks++
	if l.checks >= sweepEvery {
		l.sweepLocked(now)
	}
	counter := l.counters[key]
	if counter == nil || counter.index != index {
		counter = &memoryCounter{index: index, reset: reset}
		l.counters[key] = counter
	}
	if counter.count >= limit {
		return Result{Allowed: false, Reset: reset}, nil
	}
	counter.count++
	return Result{Allowed: true, Remaining: limit - counter.count, Reset: reset}, nil
}

// sweepLocked drops counters whose window has ended. Callers hold l.mu.
func (l *MemoryLimiter) sweepLocked(now time.Time) {
	for key, counter := range l.counters {
		if !now.Before(counter.reset) {
			delete(l.counters, key)
		}
	}
	l.checks = 0
}

// Len reports the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}
