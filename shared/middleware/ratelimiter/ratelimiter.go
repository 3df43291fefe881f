package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// bucket is a token bucket for one identity.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

// take refills the bucket for the time elapsed since the last call and
// consumes one token when available.
func (b *bucket) take(now time.Time, rate, capacity float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.lastRefill).Seconds() * rate
	if b.tokens > capacity {
		b.tokens = capacity
	}
	b.lastRefill = now
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Limiter rate limits requests per identity (a viewer, an IP).
type Limiter struct {
	rate     float64 // tokens per second
	capacity float64
	idleTTL  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// New creates a limiter allowing rate requests per second with bursts up to
// capacity. Buckets unused for idleTTL are dropped by Sweep.
func New(rate, capacity float64, idleTTL time.Duration) *Limiter {
	return &Limiter{
		rate:     rate,
		capacity: capacity,
		idleTTL:  idleTTL,
		now:      time.Now,
		buckets:  make(map[string]*bucket),
	}
}

func (l *Limiter) Allow(identity string) bool {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[identity]
	if !ok {
		b = &bucket{tokens: l.capacity, lastRefill: now}
		l.buckets[identity] = b
	}
	l.mu.Unlock()

	return b.take(now, l.rate, l.capacity)
}

// Sweep drops idle buckets and returns how many were dropped.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	dropped := 0
	for id, b := range l.buckets {
		b.mu.Lock()
		idle := b.lastSeen.Before(cutoff)
		b.mu.Unlock()
		if idle {
			delete(l.buckets, id)
			dropped++
		}
	}
	return dropped
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// StartBackgroundSweep drops idle buckets every interval until ctx is done.
func (l *Limiter) StartBackgroundSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}
