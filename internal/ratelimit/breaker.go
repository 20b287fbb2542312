package ratelimit

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// breaker keeps the manager off Redis for cooldown after a failure.
type breaker struct {
	mu       sync.Mutex
	until    time.Time
	cooldown time.Duration
}

func (b *breaker) open(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.until.IsZero() {
		return false
	}
	if now.Before(b.until) {
		return true
	}
	b.until = time.Time{}
	return false
}

// trip opens the breaker unless it is already open, logging once per outage.
func (b *breaker) trip(err error, now time.Time) {
	if err == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.until.IsZero() && now.Before(b.until) {
		return
	}
	b.until = now.Add(b.cooldown)
	log.WithError(err).WithField("cooldown", b.cooldown).Warn("analysis limiter: redis unavailable, counting in memory")
}
