// Package ratelimit throttles repeated form submissions per client key.
package ratelimit

import (
	"sync"
	"time"
)

// RateLimiter is implemented by the in-memory and Redis limiters
type RateLimiter interface {
	// Allow reports whether key may act now and, if so, starts a new interval
	Allow(key string) bool
	// Reset forgets key
	Reset(key string)
}

// Limiter enforces a minimum interval between actions for the same key
type Limiter struct {
	mu          sync.Mutex
	keys        map[string]time.Time
	minInterval time.Duration
}

// New creates a limiter allowing one action per key every minInterval
func New(minInterval time.Duration) *Limiter {
	return &Limiter{
		keys:        make(map[string]time.Time),
		minInterval: minInterval,
	}
}

// Allow reports whether key may act now. A denied call does not extend the interval.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if last, ok := l.keys[key]; ok && now.Sub(last) < l.minInterval {
		return false
	}
	l.keys[key] = now
	return true
}

// Wait blocks until key may act, then records the action
func (l *Limiter) Wait(key string) {
	for {
		l.mu.Lock()
		now := time.Now()
		last, ok := l.keys[key]
		if !ok || now.Sub(last) >= l.minInterval {
			l.keys[key] = now
			l.mu.Unlock()
			return
		}
		wait := l.minInterval - now.Sub(last)
		l.mu.Unlock()

		time.Sleep(wait)
	}
}

// Retry returns how long key must wait before Allow succeeds
func (l *Limiter) Retry(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.keys[key]
	if !ok {
		return 0
	}
	if d := l.minInterval - time.Since(last); d > 0 {
		return d
	}
	return 0
}

// Reset forgets key
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.keys, key)
}

// ResetAll forgets every key
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = make(map[string]time.Time)
}

// Prune drops keys whose interval has elapsed
func (l *Limiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, last := range l.keys {
		if now.Sub(last) >= l.minInterval {
			delete(l.keys, key)
		}
	}
}

var _ RateLimiter = (*Limiter)(nil)
