package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// TokenBucket allows bursts up to capacity while holding the average rate
// at refillRate tokens per second.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64
	lastRefill time.Time
	now        func() time.Time
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return newTokenBucket(capacity, refillRate, time.Now)
}

func newTokenBucket(capacity int, refillRate float64, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: now(),
		now:        now,
	}
}

// Take consumes one token. When none is available it returns false and the
// time until the next token.
func (tb *TokenBucket) Take() (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
		tb.lastRefill = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true, 0
	}
	wait := (1 - tb.tokens) / tb.refillRate
	return false, time.Duration(wait * float64(time.Second))
}

// ConcurrencyLimiter is a counting semaphore that never blocks.
type ConcurrencyLimiter struct {
	limit   int64
	current atomic.Int64
}

// NewConcurrencyLimiter allows at most limit holders at once.
func NewConcurrencyLimiter(limit int) *ConcurrencyLimiter {
	return &ConcurrencyLimiter{limit: int64(limit)}
}

// Acquire takes a slot. A true result must be paired with Release.
func (cl *ConcurrencyLimiter) Acquire() bool {
	if cl.current.Add(1) > cl.limit {
		cl.current.Add(-1)
		return false
	}
	return true
}

// Release returns a slot.
func (cl *ConcurrencyLimiter) Release() {
	cl.current.Add(-1)
}

// InFlight returns the number of held slots.
func (cl *ConcurrencyLimiter) InFlight() int64 {
	return cl.current.Load()
}

// RateLimit rejects requests with 429 when bucket is empty or limiter is
// full. Either may be nil.
func RateLimit(bucket *TokenBucket, limiter *ConcurrencyLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if bucket == nil && limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bucket != nil {
				if ok, wait := bucket.Take(); !ok {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
					writeError(w, http.StatusTooManyRequests, ErrorTypeRateLimited, "tool invocation rate exceeded")
					return
				}
			}
			if limiter != nil {
				if !limiter.Acquire() {
					w.Header().Set("Retry-After", "1")
					writeError(w, http.StatusTooManyRequests, ErrorTypeRateLimited, "too many tool invocations in flight")
					return
				}
				defer limiter.Release()
			}
			next.ServeHTTP(w, r)
		})
	}
}
