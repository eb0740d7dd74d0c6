package http

import (
	"sync"
	"time"
)

const (
	idleClientTTL   = 1 * time.Hour
	cleanupInterval = 30 * time.Minute
)

type clientBucket struct {
	tokens     int
	lastRefill time.Time
}

// RateLimiter is a per-client token bucket: each client gets capacity
// requests, refilled all at once every refillEvery.
type RateLimiter struct {
	mu          sync.Mutex
	capacity    int
	refillEvery time.Duration
	clients     map[string]*clientBucket
	now         func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

func NewRateLimiter(capacity int, refillEvery time.Duration) *RateLimiter {
	rl := newRateLimiter(capacity, refillEvery, time.Now)
	go rl.cleanupLoop()
	return rl
}

func newRateLimiter(capacity int, refillEvery time.Duration, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		capacity:    capacity,
		refillEvery: refillEvery,
		clients:     make(map[string]*clientBucket),
		now:         now,
		stop:        make(chan struct{}),
	}
}

func (r *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.stop:
			return
		}
	}
}

func (r *RateLimiter) evictIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for client, bucket := range r.clients {
		if now.Sub(bucket.lastRefill) > idleClientTTL {
			delete(r.clients, client)
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Allow consumes one token for client and reports whether the request may proceed.
func (r *RateLimiter) Allow(client string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	bucket, ok := r.clients[client]
	if !ok {
		r.clients[client] = &clientBucket{tokens: r.capacity - 1, lastRefill: now}
		return r.capacity > 0
	}

	if now.Sub(bucket.lastRefill) >= r.refillEvery {
		bucket.tokens = r.capacity
		bucket.lastRefill = now
	}

	if bucket.tokens <= 0 {
		return false
	}
	bucket.tokens--
	return true
}
