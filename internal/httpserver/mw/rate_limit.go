package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type RateLimitConfig struct {
	Burst             int
	RefillPerIPPerMin int
	MaxEntries        int
	SweepInterval     time.Duration
	IdleTTL           time.Duration
	TrustProxy        bool
}

// bucket is a token bucket for one caller
type bucket struct {
	mu       sync.Mutex
	tokens   float64
	refilled time.Time
	seen     time.Time
}

type limiter struct {
	cfg      RateLimitConfig
	rate     float64 // tokens per second
	capacity float64

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	cfg.Burst = max(cfg.Burst, 1)
	cfg.RefillPerIPPerMin = max(cfg.RefillPerIPPerMin, 1)

	return &limiter{
		cfg:       cfg,
		rate:      float64(cfg.RefillPerIPPerMin) / 60.0,
		capacity:  float64(cfg.Burst),
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// bucketFor returns nil when the table is full of live buckets
func (l *limiter) bucketFor(key string, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	full := l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries
	if full || now.Sub(l.lastSweep) >= l.cfg.SweepInterval {
		l.sweepLocked(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		if l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries {
			return nil
		}
		b = &bucket{tokens: l.capacity, refilled: now, seen: now}
		l.buckets[key] = b
	}
	return b
}

// take consumes one token. When none is left it returns the seconds until
// the next one.
func (l *limiter) take(key string, now time.Time) (ok bool, remaining, retryAfter int) {
	b := l.bucketFor(key, now)
	if b == nil {
		return false, 0, max(int(l.cfg.SweepInterval.Seconds()), 1)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.refilled).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.rate)
		b.refilled = now
	}
	b.seen = now

	if b.tokens < 1 {
		wait := int(math.Ceil((1 - b.tokens) / l.rate))
		return false, 0, max(wait, 1)
	}
	b.tokens--
	return true, int(b.tokens), 0
}

func (l *limiter) sweepLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.seen) > l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// RateLimit throttles callers with a token bucket per client IP. Headers
// the caller controls, such as the owner, never pick the bucket.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, retry := l.take(ClientIP(r, l.cfg.TrustProxy), l.now())

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
