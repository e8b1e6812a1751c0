package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a per-process rolling window limiter. Each key keeps the
// timestamps of its accepted requests within the last window, oldest first.
type Memory struct {
	mu        sync.Mutex
	hits      map[string][]time.Time
	max       int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewMemory creates an in-memory limiter allowing max requests per rolling window.
func NewMemory(max int, window time.Duration) *Memory {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Memory{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow records the request and reports whether key is still within its window.
// Rejected requests are not counted.
func (m *Memory) Allow(_ context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	hits := prune(m.hits[key], now.Add(-m.window))
	if len(hits) >= m.max {
		m.hits[key] = hits
		retryAfter := hits[0].Add(m.window).Sub(now)
		if retryAfter <= 0 {
			retryAfter = m.window
		}
		return Result{Allowed: false, RetryAfter: retryAfter}, nil
	}

	m.hits[key] = append(hits, now)
	return Result{Allowed: true}, nil
}

// prune drops timestamps before cutoff, matching the redis ZREMRANGEBYSCORE.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && hits[i].Before(cutoff) {
		i++
	}
	return hits[i:]
}

// sweep drops keys with no request inside the last window.
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	cutoff := now.Add(-m.window)
	for key, hits := range m.hits {
		if len(prune(hits, cutoff)) == 0 {
			delete(m.hits, key)
		}
	}
	m.lastSweep = now
}

// Len returns the number of tracked clients.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}
