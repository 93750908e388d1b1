package limiter

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a client may make another request
// Both the in-memory and the Redis implementation satisfy it
type Limiter interface {
	// Allow reports whether a request from key (usually the client IP) may proceed
	Allow(ctx context.Context, key string) bool

	// Close releases connections or goroutines
	Close() error
}

// TokenBucket is the rate state of a single client
//
//   - the bucket holds at most capacity tokens and starts full
//   - tokens come back at refillRate per second
//   - each request takes one token; an empty bucket means 429
type TokenBucket struct {
	mu             sync.Mutex
	tokens         float64
	capacity       float64
	refillRate     float64 // tokens per second
	lastRefillTime time.Time
}

// NewTokenBucket creates a full bucket; capacity is at least one token
func NewTokenBucket(rate, capacity float64) *TokenBucket {
	capacity = max(capacity, 1.0)
	return &TokenBucket{
		tokens:         capacity,
		capacity:       capacity,
		refillRate:     rate,
		lastRefillTime: time.Now(),
	}
}

// Allow takes a token if one is available
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// refill must be called with mutex locked
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	tb.tokens = min(tb.tokens+elapsed*tb.refillRate, tb.capacity)
	tb.lastRefillTime = now
}

// idleBucketTTL is how long an untouched bucket is kept
const idleBucketTTL = 5 * time.Minute

// MemoryLimiter keeps one token bucket per client in process memory
// Fine for a single server; use RedisLimiter when several share a limit.
type MemoryLimiter struct {
	buckets     sync.Map // key -> *TokenBucket
	rate        float64
	capacity    float64
	cleanupMu   sync.Mutex
	lastCleanup time.Time
}

// NewMemoryLimiter allows limit requests per window per client
// The whole allowance may be spent in a burst.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if window <= 0 {
		window = time.Second
	}
	return &MemoryLimiter{
		rate:        float64(limit) / window.Seconds(),
		capacity:    float64(limit),
		lastCleanup: time.Now(),
	}
}

// Allow implements Limiter
func (rl *MemoryLimiter) Allow(_ context.Context, key string) bool {
	allowed := rl.getBucket(key).Allow()
	rl.maybeCleanup()
	return allowed
}

func (rl *MemoryLimiter) getBucket(key string) *TokenBucket {
	if value, ok := rl.buckets.Load(key); ok {
		return value.(*TokenBucket)
	}
	actual, _ := rl.buckets.LoadOrStore(key, NewTokenBucket(rl.rate, rl.capacity))
	return actual.(*TokenBucket)
}

// maybeCleanup drops idle buckets, at most once per idleBucketTTL
func (rl *MemoryLimiter) maybeCleanup() {
	rl.cleanupMu.Lock()
	defer rl.cleanupMu.Unlock()

	if time.Since(rl.lastCleanup) < idleBucketTTL {
		return
	}

	threshold := time.Now().Add(-idleBucketTTL)
	rl.buckets.Range(func(key, value interface{}) bool {
		bucket := value.(*TokenBucket)
		bucket.mu.Lock()
		lastAccess := bucket.lastRefillTime
		bucket.mu.Unlock()

		if lastAccess.Before(threshold) {
			rl.buckets.Delete(key)
		}
		return true
	})

	rl.lastCleanup = time.Now()
}

// Close implements Limiter; there is nothing to release
func (rl *MemoryLimiter) Close() error {
	return nil
}
